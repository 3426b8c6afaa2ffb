package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	BlobBasePath string // base directory for the fs blob store

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt

	// External PDF render service. Empty disables on-demand regeneration.
	PDFRenderURL     string
	PDFRenderTimeout time.Duration

	// Progress watch polling.
	RefreshInterval time.Duration

	CORSOrigins []string
}

func FromEnv() Config {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	mode := Mode(envOr("MODE", string(ModeDev)))
	return Config{
		Mode:             mode,
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		PublicURL:        os.Getenv("PUBLIC_URL"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BlobBasePath:     envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:   envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", ""),
		PDFRenderURL:     os.Getenv("PDF_RENDER_URL"),
		PDFRenderTimeout: envDuration("PDF_RENDER_TIMEOUT", 20*time.Second),
		RefreshInterval:  envDuration("REFRESH_INTERVAL", 15*time.Second),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
