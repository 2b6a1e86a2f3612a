package report

import (
	"context"
	"errors"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm"
)

// NewFromConfig 按配置组装对话模型、向量模型、索引加载器和公司列表
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Generator, error) {
	if cfg.LLM.Model == "" {
		return nil, errors.New("配置错误: 未设置 llm.model")
	}
	if cfg.Embedding.Model == "" {
		return nil, errors.New("配置错误: 未设置 embedding.model")
	}

	cm, err := llm.SharedChatModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	emb, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}

	return NewGenerator(
		company.FromConfig(cfg.Companies),
		index.NewLoader(cfg.Index.PersistDir, emb),
		llm.NewRetryModel(cm, cfg.Concurrency),
		OptionsFromConfig(cfg),
	), nil
}
