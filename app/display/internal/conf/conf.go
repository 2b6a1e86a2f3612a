package conf

type Bootstrap struct {
	Server *Server
	Data   *Data
	Equity *Equity
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type Data struct {
	Database *Database
}

// Database Source 为空时不保存报告历史
type Database struct {
	Driver string
	Source string
}

type Equity struct {
	Llm         *LLM         `json:"llm"`
	Embedding   *Embedding   `json:"embedding"`
	Index       *Index       `json:"index"`
	Engine      *Engine      `json:"engine"`
	Concurrency *Concurrency `json:"concurrency"`
	Companies   []*Company   `json:"companies"`
	Log         *Log         `json:"log"`
}

type LLM struct {
	BaseUrl     string   `json:"base_url"`
	ApiKey      string   `json:"api_key"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature"`
	Timeout     int32    `json:"timeout"`
}

type Embedding struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Index struct {
	PersistDir     string  `json:"persist_dir"`
	SimilarityTopK int32   `json:"similarity_top_k"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type Engine struct {
	UseAsync       bool  `json:"use_async"`
	MaxConcurrency int32 `json:"max_concurrency"`
}

type Concurrency struct {
	Qps        int32 `json:"qps"`
	Rpm        int32 `json:"rpm"`
	MaxRetries int32 `json:"max_retries"`
}

type Company struct {
	Name          string `json:"name"`
	Url           string `json:"url"`
	FinancialYear string `json:"financial_year"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}
