package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm"
)

const textQATemplate = `Context information is below.
---------------------
{context_str}
---------------------
Given the context information and not prior knowledge, answer the query.
Query: {query_str}
Answer: `

const textQASystem = "You are an expert Q&A system that is trusted around the world. " +
	"Always answer the query using the provided context information, and not prior knowledge."

var textQAPrompt = prompt.FromMessages(schema.FString,
	schema.SystemMessage(textQASystem),
	schema.UserMessage(textQATemplate),
)

// Synthesizer 把检索到的文本块压缩进一次模型调用生成答案
type Synthesizer struct {
	model     model.BaseChatModel
	callbacks *callback.Manager
}

// NewSynthesizer mgr 可为 nil
func NewSynthesizer(cm model.BaseChatModel, mgr *callback.Manager) *Synthesizer {
	return &Synthesizer{model: cm, callbacks: mgr}
}

// Synthesize 以 chunks 为上下文回答 query
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []string) (string, error) {
	ctx, ev := s.callbacks.OnStart(ctx, callback.EventSynthesize, &callback.SynthesizePayload{Query: query})

	vars := map[string]any{
		"context_str": strings.Join(chunks, "\n\n"),
		"query_str":   query,
	}
	msgs, err := s.format(ctx, vars)
	if err != nil {
		return "", err
	}

	resp, err := llm.Generate(ctx, s.model, s.callbacks, "synthesizer", msgs)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	answer := strings.TrimSpace(resp.Content)

	s.callbacks.OnEnd(ctx, ev, &callback.SynthesizePayload{Query: query, Response: answer})
	return answer, nil
}

func (s *Synthesizer) format(ctx context.Context, vars map[string]any) ([]*schema.Message, error) {
	ctx, ev := s.callbacks.OnStart(ctx, callback.EventTemplating, &callback.TemplatingPayload{Template: textQATemplate, Vars: vars})
	msgs, err := textQAPrompt.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format text qa prompt: %w", err)
	}
	s.callbacks.OnEnd(ctx, ev, &callback.TemplatingPayload{Template: textQATemplate, Vars: vars})
	return msgs, nil
}
