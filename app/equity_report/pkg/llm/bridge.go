package llm

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

type bridgeKey struct{}

type bridgeState struct {
	start   callback.Event
	payload *callback.LLMPayload
}

// NewCallbackBridge 把 eino 对话模型的回调转成 llm 事件
func NewCallbackBridge(mgr *callback.Manager) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			p := &callback.LLMPayload{}
			if info != nil {
				p.Model = info.Name
			}
			if in := model.ConvCallbackInput(input); in != nil {
				p.Messages = in.Messages
				if in.Config != nil && in.Config.Model != "" {
					p.Model = in.Config.Model
				}
			}
			_, ev := mgr.OnStart(ctx, callback.EventLLM, p)
			return context.WithValue(ctx, bridgeKey{}, &bridgeState{start: ev, payload: p})
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			st, ok := ctx.Value(bridgeKey{}).(*bridgeState)
			if !ok {
				return ctx
			}
			p := &callback.LLMPayload{Model: st.payload.Model, Messages: st.payload.Messages}
			if out := model.ConvCallbackOutput(output); out != nil {
				if out.Message != nil {
					p.Response = out.Message.Content
				}
				p.Usage = out.TokenUsage
			}
			mgr.OnEnd(ctx, st.start, p)
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			name := ""
			if info != nil {
				name = info.Name
			}
			logger.Log.Warnf("LLM 调用出错 [%s]: %v", name, err)
			return ctx
		}).
		Build()
}

// Generate 调用模型。Manager 有 Handler 时通过 eino 回调上报 llm 事件
func Generate(ctx context.Context, cm model.BaseChatModel, mgr *callback.Manager, name string, msgs []*schema.Message) (*schema.Message, error) {
	if mgr.Len() > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      name,
			Type:      "OpenAI",
			Component: components.ComponentOfChatModel,
		}, NewCallbackBridge(mgr))
	}
	return cm.Generate(ctx, msgs)
}
