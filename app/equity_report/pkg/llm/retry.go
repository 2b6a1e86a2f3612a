package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

const defaultBaseDelay = 2 * time.Second

// RetryModel 为对话模型加上限流和有限次数的指数退避重试
type RetryModel struct {
	inner      model.BaseChatModel
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

var _ model.BaseChatModel = (*RetryModel)(nil)

// NewRetryModel 根据并发配置包装模型，RPM 决定速率，QPS 决定突发
func NewRetryModel(inner model.BaseChatModel, cfg config.ConcurrencyConfig) *RetryModel {
	var limiter *rate.Limiter
	if cfg.RPM > 0 {
		burst := cfg.QPS
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), burst)
	}
	return &RetryModel{
		inner:      inner,
		limiter:    limiter,
		maxRetries: max(0, cfg.MaxRetries),
		baseDelay:  defaultBaseDelay,
	}
}

// WithBaseDelay 修改首次退避时长
func (m *RetryModel) WithBaseDelay(d time.Duration) *RetryModel {
	m.baseDelay = d
	return m
}

func (m *RetryModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var lastErr error
	for i := 0; i <= m.maxRetries; i++ {
		if err := m.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := m.inner.Generate(ctx, input, opts...)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if i == m.maxRetries {
			break
		}
		delay := m.baseDelay * time.Duration(1<<i)
		logger.Log.Warnf("LLM 调用失败，%s 后重试 (%d/%d): %v", delay, i+1, m.maxRetries, err)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Stream 只做限流，流式输出无法安全重试
func (m *RetryModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.inner.Stream(ctx, input, opts...)
}

func (m *RetryModel) wait(ctx context.Context) error {
	if m.limiter == nil {
		return ctx.Err()
	}
	return m.limiter.Wait(ctx)
}

// IsTransient 限流、超时和服务端 5xx 可以重试
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"429", "too many requests", "rate limit", "timeout", "502", "503", "504", "connection reset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
