// Package intents detects coarse user intents with an ordered, first-match
// rule table.
package intents

import (
	"regexp"
	"strings"
)

// Rule maps a pattern, evaluated against the lower-cased message, to a label.
type Rule struct {
	Label   string
	Pattern *regexp.Regexp
}

// Table is evaluated in declaration order; the first matching rule wins.
type Table []Rule

type Classifier struct {
	table Table
}

func NewClassifier(table Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the label of the first rule whose pattern matches any
// substring of the lower-cased message.
func (c *Classifier) Classify(message string) (string, bool) {
	normalized := strings.ToLower(message)
	for _, rule := range c.table {
		if rule.Pattern.MatchString(normalized) {
			return rule.Label, true
		}
	}
	return "", false
}

// Labels lists the table's labels in evaluation order.
func (c *Classifier) Labels() []string {
	labels := make([]string, 0, len(c.table))
	for _, rule := range c.table {
		labels = append(labels, rule.Label)
	}
	return labels
}
