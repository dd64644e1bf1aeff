package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	kb, err := knowledge.Default()
	require.NoError(t, err)
	b, err := NewBuilder(kb)
	require.NoError(t, err)
	return b
}

func TestBuildIncludesKnowledgeAndMessage(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(context.Background(), "  ¿Dónde veo mis reservas?  ")
	require.NoError(t, err)

	assert.Contains(t, out, "Hotel Quantum Gateway")
	assert.Contains(t, out, "- Mis Reservas: Consulta, modificación y cancelación")
	assert.Contains(t, out, "- Mis Reservas (abre la sección Mis Reservas)")
	assert.Contains(t, out, "- Botón de WhatsApp:")
	assert.Contains(t, out, "* Cancelar una reserva:")
	assert.Contains(t, out, "  - Pulsar Cancelar reserva y confirmar.")
	assert.True(t, strings.HasSuffix(out, "¿Dónde veo mis reservas?\n"))
	assert.NotContains(t, out, "{{")
}

func TestBuildDoesNotEvaluateMessageAsTemplate(t *testing.T) {
	b := newTestBuilder(t)

	out, err := b.Build(context.Background(), "{{.Hotel}} y {dato}")
	require.NoError(t, err)
	assert.Contains(t, out, "{{.Hotel}} y {dato}")
}

func TestBuildResolvesMenuSectionNames(t *testing.T) {
	kb, err := knowledge.Parse([]byte(`
hotel: Hotel Prueba
sections:
  - id: contacto
    name: Contacto y Ubicación
menu:
  - label: Escríbenos
    section: contacto
`))
	require.NoError(t, err)
	b, err := NewBuilder(kb)
	require.NoError(t, err)

	out, err := b.Build(context.Background(), "hola")
	require.NoError(t, err)
	assert.Contains(t, out, "- Escríbenos (abre la sección Contacto y Ubicación)")
	assert.NotContains(t, out, "sección contacto")
}

func TestNewBuilderRequiresKnowledge(t *testing.T) {
	_, err := NewBuilder(nil)
	assert.Error(t, err)
}
