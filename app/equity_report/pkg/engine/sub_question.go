package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// DefaultMaxConcurrency 并发回答子问题的默认上限
const DefaultMaxConcurrency = 4

// SubQuestionOptions 子问题的执行方式
type SubQuestionOptions struct {
	UseAsync       bool
	MaxConcurrency int
}

// SubQuestionQueryEngine 拆分子问题、分别回答、再合成总答案
type SubQuestionQueryEngine struct {
	generator   *QuestionGenerator
	synthesizer *Synthesizer
	tools       []Tool
	opts        SubQuestionOptions
	callbacks   *callback.Manager
}

var _ QueryEngine = (*SubQuestionQueryEngine)(nil)

// NewSubQuestionQueryEngine 工具的引擎应当与本引擎共用同一个 mgr，子问题内部的事件才能挂在同一个 trace 下
func NewSubQuestionQueryEngine(cm model.BaseChatModel, tools []Tool, opts SubQuestionOptions, mgr *callback.Manager) (*SubQuestionQueryEngine, error) {
	if len(tools) == 0 {
		return nil, errors.New("sub question engine: no tools")
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &SubQuestionQueryEngine{
		generator:   NewQuestionGenerator(cm, mgr),
		synthesizer: NewSynthesizer(cm, mgr),
		tools:       tools,
		opts:        opts,
		callbacks:   mgr,
	}, nil
}

type answeredQuestion struct {
	qa      callback.SubQuestionAnswer
	sources []*schema.Document
}

func (e *SubQuestionQueryEngine) Query(ctx context.Context, query string) (*Response, error) {
	ctx = e.callbacks.StartTrace(ctx)
	defer e.callbacks.EndTrace(ctx)

	ctx, ev := e.callbacks.OnStart(ctx, callback.EventQuery, &callback.QueryPayload{Query: query})

	metas := make([]ToolMetadata, 0, len(e.tools))
	for _, t := range e.tools {
		metas = append(metas, t.Metadata)
	}
	subs, err := e.generator.Generate(ctx, metas, query)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("生成了 %d 个子问题", len(subs))

	results := make([]*answeredQuestion, len(subs))
	if e.opts.UseAsync {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.MaxConcurrency)
		for i, sq := range subs {
			i, sq := i, sq
			g.Go(func() error {
				res, err := e.answer(gctx, sq)
				results[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, sq := range subs {
			res, err := e.answer(ctx, sq)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	}

	resp := &Response{}
	chunks := make([]string, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		resp.SubQuestions = append(resp.SubQuestions, res.qa)
		resp.Sources = append(resp.Sources, res.sources...)
		chunks = append(chunks, fmt.Sprintf("Sub question: %s\nResponse: %s", res.qa.Question, res.qa.Answer))
	}

	text, err := e.synthesizer.Synthesize(ctx, query, chunks)
	if err != nil {
		return nil, err
	}
	resp.Text = text

	e.callbacks.OnEnd(ctx, ev, &callback.QueryPayload{Query: query, Response: text})
	return resp, nil
}

// answer 工具不存在时返回 nil, nil
func (e *SubQuestionQueryEngine) answer(ctx context.Context, sq SubQuestion) (*answeredQuestion, error) {
	tool, ok := e.resolve(sq.ToolName)
	if !ok {
		logger.Log.Warnf("子问题 [%s] 指定的工具 [%s] 不存在，已跳过", sq.SubQuestion, sq.ToolName)
		return nil, nil
	}

	ctx, ev := e.callbacks.OnStart(ctx, callback.EventSubQuestion, &callback.SubQuestionPayload{
		Question: sq.SubQuestion,
		ToolName: tool.Metadata.Name,
	})

	resp, err := tool.Engine.Query(ctx, sq.SubQuestion)
	if err != nil {
		return nil, fmt.Errorf("sub question %q: %w", sq.SubQuestion, err)
	}
	answer := strings.TrimSpace(resp.Text)
	logger.Log.Debugf("子问题 [%s] 已回答", sq.SubQuestion)

	e.callbacks.OnEnd(ctx, ev, callback.Answered(sq.SubQuestion, tool.Metadata.Name, answer, resp.Sources))
	return &answeredQuestion{
		qa:      callback.SubQuestionAnswer{Question: sq.SubQuestion, Answer: answer},
		sources: resp.Sources,
	}, nil
}

func (e *SubQuestionQueryEngine) resolve(name string) (Tool, bool) {
	for _, t := range e.tools {
		if t.Metadata.Name == name {
			return t, true
		}
	}
	if len(e.tools) == 1 {
		return e.tools[0], true
	}
	return Tool{}, false
}
