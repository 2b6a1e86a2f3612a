// Package llmtest 提供测试用的对话模型与向量模型实现。
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 按 Respond 返回内容，记录每次调用的消息。
// 与真实模型一样在调用前后触发 eino 回调
type ChatModel struct {
	Respond func(msgs []*schema.Message) (string, error)

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.BaseChatModel = (*ChatModel)(nil)

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: input, Config: &model.Config{Model: "fake"}})

	content := ""
	if m.Respond != nil {
		var err error
		content, err = m.Respond(input)
		if err != nil {
			callbacks.OnError(ctx, err)
			return nil, err
		}
	}
	msg := schema.AssistantMessage(content, nil)
	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: msg})
	return msg, nil
}

func (m *ChatModel) IsCallbacksEnabled() bool { return true }

func (m *ChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

// Calls 已记录的调用
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// LastUserContent 消息列表中最后一条用户消息
func LastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == schema.User {
			return msgs[i].Content
		}
	}
	return ""
}

// Embedder 文本包含 Vectors 中的关键词时返回对应向量，否则返回 Default
type Embedder struct {
	Vectors map[string][]float64
	Default []float64
	Err     error
}

var _ embedding.Embedder = (*Embedder)(nil)

func (e *Embedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		vec := e.Default
		for kw, v := range e.Vectors {
			if strings.Contains(strings.ToLower(text), strings.ToLower(kw)) {
				vec = v
				break
			}
		}
		out = append(out, vec)
	}
	return out, nil
}
