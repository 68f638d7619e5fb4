package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// API es la configuración del backend (cmd/api).
type API struct {
	Port       string
	DBDSN      string // Postgres; tiene prioridad sobre SQLite
	SQLitePath string
	SeedDemo   bool

	OdinBaseURL string
	OdinAPIKey  string
}

// Console es la configuración del operador (cmd/console). Los flags de cobra la pisan.
type Console struct {
	APIURL   string
	WSURL    string
	ActorRef string
	Role     string
	Token    string

	BulkConcurrency int
	ReconcileEvery  time.Duration
	RequestTimeout  time.Duration
}

func LoadAPI() (API, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	return API{
		Port:        port,
		DBDSN:       strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:  strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		SeedDemo:    envBool("SEED_DEMO", false),
		OdinBaseURL: strings.TrimSpace(os.Getenv("ODIN_BASE_URL")),
		OdinAPIKey:  strings.TrimSpace(os.Getenv("ODIN_API_KEY")),
	}, nil
}

func LoadConsole() (Console, error) {
	apiURL := strings.TrimSpace(os.Getenv("CONSOLE_API_URL"))
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	wsURL := strings.TrimSpace(os.Getenv("CONSOLE_WS_URL"))
	if wsURL == "" {
		wsURL = DeriveWSURL(apiURL)
	}
	role := strings.TrimSpace(os.Getenv("CONSOLE_ROLE"))
	if role == "" {
		role = "admin"
	}

	concurrency, err := envInt("CONSOLE_BULK_CONCURRENCY", 8)
	if err != nil {
		return Console{}, err
	}
	every, err := envDuration("CONSOLE_RECONCILE_EVERY", 0)
	if err != nil {
		return Console{}, err
	}
	timeout, err := envDuration("CONSOLE_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return Console{}, err
	}

	return Console{
		APIURL:          apiURL,
		WSURL:           wsURL,
		ActorRef:        strings.TrimSpace(os.Getenv("CONSOLE_ACTOR")),
		Role:            role,
		Token:           strings.TrimSpace(os.Getenv("CONSOLE_TOKEN")),
		BulkConcurrency: concurrency,
		ReconcileEvery:  every,
		RequestTimeout:  timeout,
	}, nil
}

// DeriveWSURL arma la URL del canal push a partir de la base HTTP.
func DeriveWSURL(apiURL string) string {
	u := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/events/ws"
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration", key)
	}
	return v, nil
}
