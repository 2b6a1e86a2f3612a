// Package report 组织一次完整的研究报告生成：加载公司索引，依次用前后两段提示词
// 查询子问题引擎，把子问题实时写到输出端，最后拼成报告。
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/engine"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
	dm "github.com/iWorld-y/equity_report/app/equity_report/pkg/model"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/reporter"
)

// ToolName 公司 10-K 查询工具的名称
const ToolName = "engine"

// IndexLoader 按公司名加载向量索引
type IndexLoader interface {
	LoadCompany(ctx context.Context, name string) (*index.VectorIndex, error)
}

// Options 生成参数
type Options struct {
	TopK           int
	ScoreThreshold float64
	Engine         engine.SubQuestionOptions
	// Trace 为 true 时额外注册 LogHandler 输出每个事件
	Trace bool
}

// OptionsFromConfig 从配置文件取生成参数
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TopK:           cfg.Index.SimilarityTopK,
		ScoreThreshold: cfg.Index.ScoreThreshold,
		Engine: engine.SubQuestionOptions{
			UseAsync:       cfg.Engine.UseAsync,
			MaxConcurrency: cfg.Engine.MaxConcurrency,
		},
		Trace: cfg.Log.Level == "debug",
	}
}

// Generator 报告生成器，可并发使用
type Generator struct {
	catalog *company.Catalog
	loader  IndexLoader
	model   model.BaseChatModel
	opts    Options
}

func NewGenerator(catalog *company.Catalog, loader IndexLoader, cm model.BaseChatModel, opts Options) *Generator {
	return &Generator{catalog: catalog, loader: loader, model: cm, opts: opts}
}

// Catalog 可选公司
func (g *Generator) Catalog() *company.Catalog {
	return g.catalog
}

// Generate 为公司生成报告。子问题在回答完成时写入 sink；任何一步失败都不返回部分报告
func (g *Generator) Generate(ctx context.Context, companyName string, sink reporter.Sink, status Status) (*dm.Report, error) {
	if status == nil {
		status = nopStatus{}
	}
	if sink == nil {
		sink = reporter.SinkFunc(func(reporter.Block) {})
	}

	rep, err := g.generate(ctx, companyName, sink, status)
	if err != nil {
		status.Update(StateError, err.Error(), false)
		return nil, err
	}
	return rep, nil
}

func (g *Generator) generate(ctx context.Context, companyName string, sink reporter.Sink, status Status) (*dm.Report, error) {
	c, err := g.catalog.Lookup(companyName)
	if err != nil {
		return nil, err
	}

	status.Update(StateRunning, LabelProcessing, false)
	logger.Log.Infof("开始生成 [%s] 的研究报告", c.Name)

	ix, err := g.loader.LoadCompany(ctx, c.Name)
	if err != nil {
		return nil, fmt.Errorf("load index for %s: %w", c.Name, err)
	}

	mgr := callback.NewManager(reporter.New(sink))
	if g.opts.Trace {
		mgr.Add(callback.NewLogHandler())
	}

	tool := engine.Tool{
		Engine: ix.AsQueryEngine(g.model, g.opts.TopK, g.opts.ScoreThreshold, mgr),
		Metadata: engine.ToolMetadata{
			Name:        ToolName,
			Description: fmt.Sprintf("Information of %s yearly financials %s", c.Name, c.FiscalYear),
		},
	}
	qe, err := engine.NewSubQuestionQueryEngine(g.model, []engine.Tool{tool}, g.opts.Engine, mgr)
	if err != nil {
		return nil, err
	}

	status.Update(StateRunning, LabelGenerating, true)

	first, err := qe.Query(ctx, FirstHalfPrompt)
	if err != nil {
		return nil, fmt.Errorf("first half: %w", err)
	}
	second, err := qe.Query(ctx, SecondHalfPrompt)
	if err != nil {
		return nil, fmt.Errorf("second half: %w", err)
	}

	status.Update(StateComplete, LabelGenerating, false)
	logger.Log.Infof("[%s] 研究报告生成完成，共 %d 个子问题", c.Name, len(first.SubQuestions)+len(second.SubQuestions))

	return &dm.Report{
		Company:      c.Name,
		Title:        dm.TitleFor(c.Name),
		FiscalYear:   c.FiscalYear,
		FirstHalf:    first.Text,
		SecondHalf:   second.Text,
		SubQuestions: append(append([]callback.SubQuestionAnswer(nil), first.SubQuestions...), second.SubQuestions...),
		CreatedAt:    time.Now(),
	}, nil
}
