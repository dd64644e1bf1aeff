package model

import "time"

// ================ Config ================
type ServerConfig struct {
	Addr            string        `envconfig:"SERVER_ADDR" default:":8000"`
	AllowedOrigin   string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://127.0.0.1:5500"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"75s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type CacheConfig struct {
	MaxSize int           `envconfig:"CACHE_MAX_SIZE" default:"200"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"60m"`
}

// ModelConfig selects the model backend and bounds how it is called.
type ModelConfig struct {
	Backend string        `envconfig:"MODEL_BACKEND" default:"ollama"`
	Timeout time.Duration `envconfig:"MODEL_TIMEOUT" default:"30s"`
	Workers int           `envconfig:"MODEL_WORKERS" default:"3"`
	Dedupe  bool          `envconfig:"MODEL_DEDUPE" default:"true"`
	// QueueTimeout bounds how long a request waits for a free worker; zero
	// waits until the request itself is cancelled.
	QueueTimeout time.Duration `envconfig:"MODEL_QUEUE_TIMEOUT" default:"60s"`
}

type OllamaConfig struct {
	Binary          string `envconfig:"OLLAMA_BINARY" default:"ollama"`
	RunCommand      string `envconfig:"OLLAMA_RUN_COMMAND" default:"run"`
	Model           string `envconfig:"OLLAMA_MODEL" default:"llama3.2:3b"`
	NumThreads      int    `envconfig:"OLLAMA_NUM_THREADS" default:"2"`
	KeepAlive       string `envconfig:"OLLAMA_KEEP_ALIVE" default:"5m"`
	MaxLoadedModels int    `envconfig:"OLLAMA_MAX_LOADED_MODELS" default:"1"`
}

type GeminiConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GEMINI_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.3"`
}

type TranscriptConfig struct {
	TTL      time.Duration `envconfig:"TRANSCRIPT_TTL" default:"24h"`
	MaxItems int           `envconfig:"TRANSCRIPT_MAX_ITEMS" default:"50"`
}

const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)
