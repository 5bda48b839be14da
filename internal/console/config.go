package console

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the operator console settings.
type Config struct {
	APIURL         string        `envconfig:"INVENTORY_API_URL" default:"http://127.0.0.1:8080"`
	Token          string        `envconfig:"INVENTORY_TOKEN"`
	Role           string        `envconfig:"INVENTORY_ROLE" default:"staff"`
	TokenFile      string        `envconfig:"INVENTORY_TOKEN_FILE" default:".stockledger-session"`
	Timezone       string        `envconfig:"LEDGER_TIMEZONE" default:"Asia/Kolkata"`
	SearchDebounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`
	ExportDir      string        `envconfig:"EXPORT_DIR" default:"."`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"pretty"`
}

// LoadConfig reads a .env file when present and then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLogger writes console diagnostics to stderr so stdout stays clean for output.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
