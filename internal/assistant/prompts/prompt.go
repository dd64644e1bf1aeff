package prompts

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/quantumgateway/hotelchat/internal/assistant/knowledge"
)

//go:embed template/hotel_prompt.txt
var hotelPrompt string

type menuEntry struct {
	Label   string
	Section string
}

// Builder renders the model prompt from the knowledge base and a user message.
type Builder struct {
	kb  *knowledge.Base
	tpl prompt.ChatTemplate
}

func NewBuilder(kb *knowledge.Base) (*Builder, error) {
	if kb == nil {
		return nil, errors.New("knowledge base is nil")
	}
	return &Builder{
		kb:  kb,
		tpl: prompt.FromMessages(schema.GoTemplate, schema.UserMessage(hotelPrompt)),
	}, nil
}

// Build returns the full prompt text for message.
func (b *Builder) Build(ctx context.Context, message string) (string, error) {
	menu := make([]menuEntry, 0, len(b.kb.Menu))
	for _, m := range b.kb.Menu {
		menu = append(menu, menuEntry{Label: m.Label, Section: b.kb.SectionName(m.Section)})
	}
	vars := map[string]any{
		"Hotel":      b.kb.Hotel,
		"Sections":   b.kb.Sections,
		"Menu":       menu,
		"UIElements": b.kb.UIElements,
		"Flows":      b.kb.Flows,
		"Message":    strings.TrimSpace(message),
	}
	msgs, err := b.tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("hotel prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("hotel prompt render: empty result")
	}
	return msgs[0].Content, nil
}
