package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm/llmtest"
)

func msgs() []*schema.Message {
	return []*schema.Message{schema.UserMessage("hello")}
}

func TestRetryModelRecoversFromRateLimit(t *testing.T) {
	attempts := 0
	inner := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("error, status code: 429, message: Too Many Requests")
		}
		return "ok", nil
	}}
	m := NewRetryModel(inner, config.ConcurrencyConfig{MaxRetries: 3}).WithBaseDelay(time.Millisecond)

	resp, err := m.Generate(context.Background(), msgs())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestRetryModelGivesUp(t *testing.T) {
	attempts := 0
	inner := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		attempts++
		return "", errors.New("503 service unavailable")
	}}
	m := NewRetryModel(inner, config.ConcurrencyConfig{MaxRetries: 2}).WithBaseDelay(time.Millisecond)

	_, err := m.Generate(context.Background(), msgs())
	assert.ErrorContains(t, err, "503")
	assert.Equal(t, 3, attempts)
}

func TestRetryModelNegativeRetriesCallsOnce(t *testing.T) {
	attempts := 0
	inner := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		attempts++
		return "ok", nil
	}}
	m := NewRetryModel(inner, config.ConcurrencyConfig{MaxRetries: -1})

	resp, err := m.Generate(context.Background(), msgs())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, attempts)

	attempts = 0
	inner.Respond = func([]*schema.Message) (string, error) {
		attempts++
		return "", errors.New("429 too many requests")
	}
	_, err = m.Generate(context.Background(), msgs())
	assert.ErrorContains(t, err, "429")
	assert.Equal(t, 1, attempts)
}

func TestRetryModelDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	inner := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		attempts++
		return "", errors.New("401 invalid api key")
	}}
	m := NewRetryModel(inner, config.ConcurrencyConfig{MaxRetries: 3}).WithBaseDelay(time.Millisecond)

	_, err := m.Generate(context.Background(), msgs())
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, 1, attempts)
}

func TestRetryModelHonoursCancellation(t *testing.T) {
	inner := &llmtest.ChatModel{Respond: func([]*schema.Message) (string, error) {
		return "", errors.New("429")
	}}
	m := NewRetryModel(inner, config.ConcurrencyConfig{MaxRetries: 5, RPM: 600, QPS: 1}).WithBaseDelay(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Generate(ctx, msgs())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("rate limit reached for requests"), true},
		{errors.New("dial tcp: i/o timeout"), true},
		{errors.New("502 bad gateway"), true},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{errors.New("invalid request: model not found"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsTransient(c.err), "%v", c.err)
	}
}

func TestStreamIsPassedThrough(t *testing.T) {
	m := NewRetryModel(&llmtest.ChatModel{}, config.ConcurrencyConfig{})
	_, err := m.Stream(context.Background(), msgs())
	assert.EqualError(t, err, "stream not supported")
}
