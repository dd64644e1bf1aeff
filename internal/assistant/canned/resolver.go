// Package canned turns a detected intent into a pre-written answer.
package canned

import (
	"sort"
	"strings"
)

const (
	StepByStepSuffix = " Si quieres, puedo guiarte paso a paso: dime en qué parte de la página estás y te indico el siguiente botón."
	UrgencySuffix    = " Si es urgente, usa el botón de WhatsApp en la sección Contacto para hablar de inmediato con recepción."
)

var (
	stepByStepCues = []string{"paso a paso", "guíame", "guiame", "explícame", "explicame"}
	urgencyCues    = []string{"urgente", "emergencia", "ahora mismo", "lo antes posible"}
)

type Resolver struct {
	templates map[string]string
}

func NewResolver(templates map[string]string) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve returns the template for label with at most one contextual suffix.
// A step-by-step request outranks urgency.
func (r *Resolver) Resolve(label, message string) (string, bool) {
	base, ok := r.templates[label]
	if !ok {
		return "", false
	}

	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, stepByStepCues):
		return base + StepByStepSuffix, true
	case containsAny(lower, urgencyCues):
		return base + UrgencySuffix, true
	default:
		return base, true
	}
}

// Labels returns the labels that have a template, sorted.
func (r *Resolver) Labels() []string {
	labels := make([]string, 0, len(r.templates))
	for label := range r.templates {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Templates returns a copy of the table.
func (r *Resolver) Templates() map[string]string {
	out := make(map[string]string, len(r.templates))
	for k, v := range r.templates {
		out[k] = v
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
