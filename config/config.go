package config

import (
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                int           `env:"PORT" envDefault:"8080"`
	Dsn                 string        `env:"DSN"`
	JwtSecret           string        `env:"JWT_SECRET"`
	JwtExpires          string        `env:"JWT_EXPIRES" envDefault:"24h"`
	SMTPHost            string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort            int           `env:"SMTP_PORT" envDefault:"465"`
	SMTPUser            string        `env:"SMTP_USER"`
	SMTPPassword        string        `env:"SMTP_PASS"`
	SMTPFrom            string        `env:"SMTP_FROM"`
	SMTPTimeout         time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	CloudinaryCloudName string        `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string        `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string        `env:"CLOUDINARY_API_SECRET"`
	GoogleClientID      string        `env:"GOOGLE_CLIENT_ID"`
	GoogleAPIKey        string        `env:"GOOGLE_API_KEY"`
	GeminiModel         string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	AppURL              string        `env:"APP_URL" envDefault:"http://localhost:3000"`
	ReportStoreURL      string        `env:"REPORT_STORE_URL" envDefault:"http://localhost:8080/api"`
	ServeReportStore    bool          `env:"SERVE_REPORT_STORE" envDefault:"true"`
	ReportStoreToken    string        `env:"REPORT_STORE_TOKEN"`
	AdminEmails         []string      `env:"ADMIN_EMAILS" envSeparator:","`
	SuperadminEmails    []string      `env:"SUPERADMIN_EMAILS" envSeparator:","`
	RateLimit           int64         `env:"RATE_LIMIT" envDefault:"10"`
	RateLimitPeriod     time.Duration `env:"RATE_LIMIT_PERIOD" envDefault:"1m"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		logger.Log.Infof("[Env]: unable to load .env file: %v", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		logger.Log.Errorf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	cfg.AdminEmails = normaliseEmails(cfg.AdminEmails)
	cfg.SuperadminEmails = normaliseEmails(cfg.SuperadminEmails)

	return &cfg
}

// MailConfigured reports whether SMTP credentials are present.
func (c *Config) MailConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPassword != ""
}

func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func normaliseEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
