// Package llm 创建对话模型与向量模型，并提供限流重试与回调桥接。
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	aclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/cache"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
)

var chatModels = cache.NewMemo[model.BaseChatModel]()

// NewChatModel 初始化 OpenAI 兼容的对话模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	mc := &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}
	if cfg.Timeout > 0 {
		mc.Timeout = time.Duration(cfg.Timeout) * time.Second
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return cm, nil
}

// SharedChatModel 相同配置在进程内复用同一个模型实例
func SharedChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	temp := "default"
	if cfg.Temperature != nil {
		temp = fmt.Sprintf("%g", *cfg.Temperature)
	}
	key := fmt.Sprintf("%s|%s|%s|%s|%d", cfg.BaseURL, cfg.APIKey, cfg.Model, temp, cfg.Timeout)
	return chatModels.Get(key, func() (model.BaseChatModel, error) {
		return NewChatModel(ctx, cfg)
	})
}

// NewEmbedder 初始化 OpenAI 兼容的向量模型，模型必须与建索引时一致
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	client, err := aclopenai.NewEmbeddingClient(ctx, &aclopenai.EmbeddingConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding 初始化失败: %w", err)
	}
	return client, nil
}
