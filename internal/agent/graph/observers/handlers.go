package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/aeg-helpline/server/pkg/logger"
)

// NewAllCallbacks aggregates the prompt and model observers into one callbacks.Handler.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// NewGraphCallbacks logs the lifecycle of the turn graph and its nodes.
func NewGraphCallbacks() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if info.Component == compose.ComponentOfGraph {
				logx.Debug().Str("graph", info.Name).Msg("graph start")
				return ctx
			}
			logx.Debug().Str("node", info.Name).Str("component", string(info.Component)).Msg("node start")
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if info.Component == compose.ComponentOfGraph {
				logx.Debug().Str("graph", info.Name).Msg("graph end")
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Str("component", string(info.Component)).Msg("node error")
			return ctx
		}).
		Build()
}
