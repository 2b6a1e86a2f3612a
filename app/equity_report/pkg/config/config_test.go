package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.yaml")
	content := `
llm:
  base_url: https://api.example.com/v1
  api_key: sk-test
  model: gpt-4o-mini
embedding:
  base_url: http://localhost:8080/v1
  model: BAAI/bge-small-en
engine:
  use_async: true
concurrency:
  max_retries: -1
companies:
  - name: Apple
    url: https://example.com/aapl.pdf
    financial_year: For the fiscal year ended September 24, 2022
db:
  host: localhost
  user: postgres
  password: secret
  name: equity
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "BAAI/bge-small-en", cfg.Embedding.Model)
	assert.True(t, cfg.Engine.UseAsync)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrency)
	assert.Equal(t, "storage", cfg.Index.PersistDir)
	assert.Equal(t, 3, cfg.Index.SimilarityTopK)
	assert.Equal(t, 0, cfg.Concurrency.MaxRetries)
	assert.Equal(t, 60, cfg.Concurrency.RPM)
	assert.Equal(t, "info", cfg.Log.Level)
	require.Len(t, cfg.Companies, 1)
	assert.Equal(t, "Apple", cfg.Companies[0].Name)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=equity sslmode=disable", cfg.DB.DSN())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSNWithoutHost(t *testing.T) {
	assert.Empty(t, DBConfig{}.DSN())
}
