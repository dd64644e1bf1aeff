package llm

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

// newModelObserver logs chat model calls at debug level. Prompts embed the
// whole knowledge base, so only their size is logged.
func newModelObserver() einocb.Handler {
	h := &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			ev := logx.Debug().Str("model", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).Int("prompt_bytes", lastUserBytes(input.Messages))
			}
			ev.Msg("chat model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			ev := logx.Debug().Str("model", info.Name)
			if output != nil && output.Message != nil {
				ev = ev.Int("reply_bytes", len(strings.TrimSpace(output.Message.Content)))
			}
			ev.Msg("chat model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("model", info.Name).Msg("chat model error")
			return ctx
		},
	}
	return callbackHelper.NewHandlerHelper().ChatModel(h).Handler()
}

// withObserver attaches the observer to ctx for a direct (non-graph) model call.
func withObserver(ctx context.Context, name string, h einocb.Handler) context.Context {
	return einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      name,
		Type:      "ChatModelInvoker",
		Component: components.ComponentOfChatModel,
	}, h)
}

func lastUserBytes(msgs []*schema.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && m.Role == schema.User {
			return len(m.Content)
		}
	}
	return 0
}
