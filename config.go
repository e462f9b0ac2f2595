package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muhammadolammi/careerzync/internal/llm"
	"github.com/muhammadolammi/careerzync/internal/storage"
)

type Config struct {
	GoogleAPIKey      string
	DBURL             string
	RabbitMQURL       string
	R2                storage.R2Config
	Port              string
	AnalysisModel     string
	ChatModel         string
	EmbeddingModel    string
	RequestsPerMinute int
	IndexDir          string
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// loadConfig reads the environment. Call godotenv.Load first to pick up a .env file.
func loadConfig() (Config, error) {
	cfg := Config{
		GoogleAPIKey: getenv("GOOGLE_API_KEY", ""),
		DBURL:        getenv("DB_URL", ""),
		RabbitMQURL:  getenv("RABBITMQ_URL", ""),
		R2: storage.R2Config{
			AccountID: getenv("R2_ACCCOUNT_ID", ""),
			Bucket:    getenv("R2_BUCKET", ""),
			AccessKey: getenv("R2_ACCESS_KEY", ""),
			SecretKey: getenv("R2_SECRET_KEY", ""),
		},
		Port:           getenv("PORT", "8080"),
		AnalysisModel:  getenv("ANALYSIS_MODEL", "gemini-2.5-pro"),
		ChatModel:      getenv("CHAT_MODEL", "gemini-2.5-flash"),
		EmbeddingModel: getenv("EMBEDDING_MODEL", llm.DefaultEmbeddingModel),
		IndexDir:       getenv("INDEX_DIR", "data/index"),
	}

	if raw := getenv("LLM_REQUESTS_PER_MINUTE", ""); raw != "" {
		rpm, err := strconv.Atoi(raw)
		if err != nil || rpm < 0 {
			return cfg, fmt.Errorf("invalid LLM_REQUESTS_PER_MINUTE %q", raw)
		}
		cfg.RequestsPerMinute = rpm
	}
	return cfg, nil
}

// requireLLM checks what the local analyze command needs.
func (c Config) requireLLM() error {
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("empty GOOGLE_API_KEY in environment")
	}
	return nil
}

// requireServices checks what the HTTP server and queue workers need.
func (c Config) requireServices() error {
	required := []struct{ key, value string }{
		{"GOOGLE_API_KEY", c.GoogleAPIKey},
		{"DB_URL", c.DBURL},
		{"RABBITMQ_URL", c.RabbitMQURL},
		{"R2_ACCCOUNT_ID", c.R2.AccountID},
		{"R2_BUCKET", c.R2.Bucket},
		{"R2_ACCESS_KEY", c.R2.AccessKey},
		{"R2_SECRET_KEY", c.R2.SecretKey},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("empty %s in environment", strings.Join(missing, ", "))
	}
	return nil
}
