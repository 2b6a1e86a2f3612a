package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/equity_report/app/display/internal/conf"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/filing"
	erLogger "github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
)

// ToConfig 将 internal/conf.Equity 转换为 pkg/config.Config
func ToConfig(c *conf.Equity) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		cfg.ApplyDefaults()
		return cfg
	}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			BaseURL:     c.Llm.BaseUrl,
			APIKey:      c.Llm.ApiKey,
			Model:       c.Llm.Model,
			Temperature: c.Llm.Temperature,
			Timeout:     int(c.Llm.Timeout),
		}
	}
	if c.Embedding != nil {
		cfg.Embedding = config.EmbeddingConfig{
			BaseURL: c.Embedding.BaseUrl,
			APIKey:  c.Embedding.ApiKey,
			Model:   c.Embedding.Model,
		}
	}
	if c.Index != nil {
		cfg.Index = config.IndexConfig{
			PersistDir:     c.Index.PersistDir,
			SimilarityTopK: int(c.Index.SimilarityTopK),
			ScoreThreshold: c.Index.ScoreThreshold,
		}
	}
	if c.Engine != nil {
		cfg.Engine = config.EngineConfig{
			UseAsync:       c.Engine.UseAsync,
			MaxConcurrency: int(c.Engine.MaxConcurrency),
		}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS:        int(c.Concurrency.Qps),
			RPM:        int(c.Concurrency.Rpm),
			MaxRetries: int(c.Concurrency.MaxRetries),
		}
	}
	for _, co := range c.Companies {
		if co == nil {
			continue
		}
		cfg.Companies = append(cfg.Companies, config.CompanyConfig{Name: co.Name, URL: co.Url, FiscalYear: co.FinancialYear})
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	cfg.ApplyDefaults()
	return cfg
}

// NewReportGenerator 初始化报告生成器
func NewReportGenerator(c *conf.Equity, logger log.Logger) (*report.Generator, func(), error) {
	helper := log.NewHelper(logger)
	cfg := ToConfig(c)

	// 初始化日志
	if err := erLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("Failed to init equity_report logger: %v", err)
		_ = erLogger.InitLogger("info", "") // 降级处理
	}

	gen, err := report.NewFromConfig(context.Background(), cfg)
	if err != nil {
		helper.Errorf("Failed to init report generator: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("Cleaning up report generator")
	}
	return gen, cleanup, nil
}

// NewFilingPreviewer 原文预览使用默认客户端
func NewFilingPreviewer() *filing.Previewer {
	return filing.NewPreviewer(nil, 0)
}
