package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Auth
	DocsumAPIKey string
	CORSOrigins  []string

	// Report generation (OpenAI-compatible endpoint)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	LLMMaxTokens   int
	LLMTemperature float64

	// Worker pool for async batches
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// PDF
	PDFFallbackPdftotext bool
	MergeEnabled         bool

	// OCR
	OCRLanguages       []string
	OCRDefaultLanguage string
	OCRRenderDPI       int
	OCRMaxDimension    int
	OCRPageTimeout     time.Duration

	// Diagnostics
	DebugPersist bool
	LogLevel     string
}

// Load builds the configuration from an optional YAML file (CONFIG_FILE)
// overlaid with environment variables.
func Load() (Config, error) {
	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: envOr("PORT", file.str("port", "8090")),

		UploadDir:      envOr("UPLOAD_DIR", file.str("upload_dir", "uploads")),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", file.int64("max_upload_bytes", 52428800)), // 50MB

		DocsumAPIKey: envOr("DOCSUM_API_KEY", file.str("api_key", "")),
		CORSOrigins:  envList("CORS_ORIGINS", file.list("cors_origins", []string{"*"})),

		LLMBaseURL:     envOr("LLM_BASE_URL", file.str("llm.base_url", "https://api.x.ai/v1")),
		LLMAPIKey:      envOr("LLM_API_KEY", file.str("llm.api_key", "")),
		LLMModel:       envOr("LLM_MODEL", file.str("llm.model", "grok-3-mini")),
		LLMTimeout:     envDuration("LLM_TIMEOUT", file.duration("llm.timeout", 120*time.Second)),
		LLMMaxTokens:   envInt("LLM_MAX_TOKENS", file.int("llm.max_tokens", 4000)),
		LLMTemperature: envFloat("LLM_TEMPERATURE", file.float("llm.temperature", 0.1)),

		WorkerCount:  envInt("WORKER_COUNT", file.int("worker_count", 2)),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", file.int("max_queue_size", 50)),
		JobTTL:       envDuration("JOB_TTL", file.duration("job_ttl", 1*time.Hour)),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", file.bool("pdf_fallback_pdftotext", true)),
		MergeEnabled:         envBool("MERGE_ENABLED", file.bool("merge_enabled", true)),

		OCRLanguages:       envList("OCR_LANGUAGES", file.list("ocr.languages", []string{"rus", "eng"})),
		OCRDefaultLanguage: envOr("OCR_DEFAULT_LANGUAGE", file.str("ocr.default_language", "eng")),
		OCRRenderDPI:       envInt("OCR_RENDER_DPI", file.int("ocr.render_dpi", 72)),
		OCRMaxDimension:    envInt("OCR_MAX_DIMENSION", file.int("ocr.max_dimension", 3000)),
		OCRPageTimeout:     envDuration("OCR_PAGE_TIMEOUT", file.duration("ocr.page_timeout", 60*time.Second)),

		DebugPersist: envBool("DEBUG_PERSIST", file.bool("debug_persist", true)),
		LogLevel:     envOr("LOG_LEVEL", file.str("log_level", "info")),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 4000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if len(cfg.OCRLanguages) == 0 {
		cfg.OCRLanguages = []string{"rus", "eng"}
	}
	if cfg.OCRDefaultLanguage == "" {
		cfg.OCRDefaultLanguage = "eng"
	}
	if cfg.OCRRenderDPI <= 0 {
		cfg.OCRRenderDPI = 72
	}
	if cfg.OCRMaxDimension <= 0 {
		cfg.OCRMaxDimension = 3000
	}
	if cfg.OCRPageTimeout <= 0 {
		cfg.OCRPageTimeout = 60 * time.Second
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLMTemperature)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
