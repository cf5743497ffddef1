package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	ML         MLConfig
	OCR        OCRConfig
	PDF        PDFConfig
	Classifier ClassifierConfig
	GigaChat   GigaChatConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json or console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool // apply pending migrations on server start
}

type JWTConfig struct {
	SecretKey string
}

type MLConfig struct {
	Provider     string // http or gigachat
	URL          string
	Timeout      time.Duration
	RetryBackoff time.Duration
}

type OCRConfig struct {
	Provider     string // http or tesseract
	URL          string
	Timeout      time.Duration
	RetryBackoff time.Duration
	Language     string
	DPI          float64
}

type PDFConfig struct {
	Engine string // fitz or pure
}

type ClassifierConfig struct {
	KeywordsFile string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too (Docker/K8s)
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "20"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	mlTimeout, _ := strconv.Atoi(getEnv("ML_TIMEOUT_SECONDS", "5"))
	mlBackoff, _ := strconv.Atoi(getEnv("ML_RETRY_BACKOFF_MS", "200"))
	ocrTimeout, _ := strconv.Atoi(getEnv("OCR_TIMEOUT_SECONDS", "60"))
	ocrBackoff, _ := strconv.Atoi(getEnv("OCR_RETRY_BACKOFF_MS", "500"))
	ocrDPI, _ := strconv.ParseFloat(getEnv("OCR_DPI", "300"), 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "expenses"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    int32(maxConns),
			AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
		},
		ML: MLConfig{
			Provider:     strings.ToLower(getEnv("ML_PROVIDER", "http")),
			URL:          strings.TrimRight(getEnv("ML_URL", "http://localhost:5001"), "/"),
			Timeout:      time.Duration(mlTimeout) * time.Second,
			RetryBackoff: time.Duration(mlBackoff) * time.Millisecond,
		},
		OCR: OCRConfig{
			Provider:     strings.ToLower(getEnv("OCR_PROVIDER", "http")),
			URL:          strings.TrimRight(getEnv("OCR_URL", "http://localhost:5002"), "/"),
			Timeout:      time.Duration(ocrTimeout) * time.Second,
			RetryBackoff: time.Duration(ocrBackoff) * time.Millisecond,
			Language:     getEnv("OCR_LANGUAGE", "por"),
			DPI:          ocrDPI,
		},
		PDF: PDFConfig{
			Engine: strings.ToLower(getEnv("PDF_ENGINE", "fitz")),
		},
		Classifier: ClassifierConfig{
			KeywordsFile: getEnv("CLASSIFIER_KEYWORDS_FILE", ""),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ML.Provider {
	case "http", "gigachat", "none":
	default:
		return fmt.Errorf("unknown ML_PROVIDER %q", c.ML.Provider)
	}
	switch c.OCR.Provider {
	case "http", "tesseract", "none":
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCR.Provider)
	}
	if c.ML.Provider == "gigachat" && c.GigaChat.APIKey == "" {
		return fmt.Errorf("GIGACHAT_API_KEY is required when ML_PROVIDER=gigachat")
	}
	return nil
}

// DSN returns a postgres:// URL accepted by both pgxpool and database/sql.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
