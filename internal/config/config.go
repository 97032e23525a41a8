package config

import (
	"os"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// AuthSecret signs user and guest JWTs. CodeSecret keys the join-code
	// permutation; changing it invalidates every issued code, so it gets its
	// own variable.
	AuthSecret string
	CodeSecret string

	EnableGuestAuth bool

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Subjective grading credential pool, tried in order. An empty pool
	// disables AI grading; essays then wait for manual grading.
	AIAPIKeys []string
	AIBaseURL string
	AIModel   string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		CodeSecret: envOr("JOIN_CODE_SECRET", "quizforge-join-codes"),

		EnableGuestAuth: envBool("ENABLE_GUEST_AUTH", true),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://app.quizforge.io"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		AIAPIKeys: csvOr("AI_API_KEYS", ""),
		AIBaseURL: envOr("AI_BASE_URL", ""),
		AIModel:   envOr("AI_MODEL", "gpt-4o-mini"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
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
