package engine

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/retriever"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
)

// RetrieverQueryEngine 检索后合成
type RetrieverQueryEngine struct {
	retriever   retriever.Retriever
	synthesizer *Synthesizer
	callbacks   *callback.Manager
}

var _ QueryEngine = (*RetrieverQueryEngine)(nil)

// NewRetrieverQueryEngine mgr 可为 nil
func NewRetrieverQueryEngine(r retriever.Retriever, synth *Synthesizer, mgr *callback.Manager) *RetrieverQueryEngine {
	return &RetrieverQueryEngine{retriever: r, synthesizer: synth, callbacks: mgr}
}

func (e *RetrieverQueryEngine) Query(ctx context.Context, query string) (*Response, error) {
	ctx = e.callbacks.StartTrace(ctx)
	defer e.callbacks.EndTrace(ctx)

	ctx, ev := e.callbacks.OnStart(ctx, callback.EventQuery, &callback.QueryPayload{Query: query})

	docs, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	chunks := make([]string, 0, len(docs))
	for _, d := range docs {
		chunks = append(chunks, d.Content)
	}

	text, err := e.synthesizer.Synthesize(ctx, query, chunks)
	if err != nil {
		return nil, err
	}

	e.callbacks.OnEnd(ctx, ev, &callback.QueryPayload{Query: query, Response: text})
	return &Response{Text: text, Sources: docs}, nil
}
