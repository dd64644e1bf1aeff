package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

// ChatModelInvoker adapts an eino chat model to Invoker. The prompt is sent
// as a single user message.
type ChatModelInvoker struct {
	chat     einomodel.BaseChatModel
	name     string
	timeout  time.Duration
	observer einocb.Handler
}

func NewChatModelInvoker(chat einomodel.BaseChatModel, name string, timeout time.Duration) *ChatModelInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChatModelInvoker{chat: chat, name: name, timeout: timeout, observer: newModelObserver()}
}

func (c *ChatModelInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	callCtx = withObserver(callCtx, c.name, c.observer)

	out, err := c.chat.Generate(callCtx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			logx.Error().Str("model", c.name).Dur("timeout", c.timeout).Msg("chat model timed out")
			return "", timeoutError(err)
		}
		logx.Error().Err(err).Str("model", c.name).Msg("chat model call failed")
		return "", executionError(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", executionError(errors.New("chat model returned an empty reply"))
	}

	c.logUsage(out)
	return strings.TrimSpace(out.Content), nil
}

func (c *ChatModelInvoker) logUsage(out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := ComputeCost(usage, ResolvePricing(c.name))
	logx.Debug().
		Str("model", c.name).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

// NewGeminiChatModel creates the Gemini chat model used when MODEL_BACKEND=gemini.
func NewGeminiChatModel(ctx context.Context, cfg model.GeminiConfig) (*gemini.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for the gemini backend")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}
	return chat, nil
}

var _ Invoker = (*ChatModelInvoker)(nil)
