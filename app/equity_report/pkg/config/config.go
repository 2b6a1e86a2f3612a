package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Index       IndexConfig       `yaml:"index"`
	Engine      EngineConfig      `yaml:"engine"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Companies   []CompanyConfig   `yaml:"companies"`
	Log         LogConfig         `yaml:"log"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	Temperature *float32 `yaml:"temperature"`
	Timeout     int      `yaml:"timeout"` // 秒
}

// EmbeddingConfig 向量模型配置，需与构建索引时使用的模型一致
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// IndexConfig 持久化索引配置
type IndexConfig struct {
	PersistDir     string  `yaml:"persist_dir"`
	SimilarityTopK int     `yaml:"similarity_top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// EngineConfig 子问题查询引擎配置
type EngineConfig struct {
	UseAsync       bool `yaml:"use_async"`
	MaxConcurrency int  `yaml:"max_concurrency"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS        int `yaml:"qps"`
	RPM        int `yaml:"rpm"`
	MaxRetries int `yaml:"max_retries"`
}

// CompanyConfig 公司元数据，覆盖内置列表
type CompanyConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	FiscalYear string `yaml:"financial_year"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN 返回 lib/pq 连接串，未配置 Host 时返回空串
func (c DBConfig) DSN() string {
	if c.Host == "" {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, port, c.User, c.Password, c.Name)
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 填充未配置项
func (c *Config) ApplyDefaults() {
	if c.Index.PersistDir == "" {
		c.Index.PersistDir = "storage"
	}
	if c.Index.SimilarityTopK <= 0 {
		c.Index.SimilarityTopK = 3
	}
	if c.Engine.MaxConcurrency <= 0 {
		c.Engine.MaxConcurrency = 4
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	// 负数表示关闭重试
	if c.Concurrency.MaxRetries == 0 {
		c.Concurrency.MaxRetries = 3
	} else if c.Concurrency.MaxRetries < 0 {
		c.Concurrency.MaxRetries = 0
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
