package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the client engine.
type Config struct {
	Server    ServerConfig
	Realtime  RealtimeConfig
	Store     StoreConfig
	Debug     DebugConfig
	Telemetry TelemetryConfig
}

// ServerConfig describes how to reach the chat server.
type ServerConfig struct {
	// Addr is host:port of the chat server, without scheme.
	Addr string
	// DevMode selects http/ws instead of https/wss.
	DevMode bool
	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration
}

// RealtimeConfig tunes the websocket channel.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration
	PongTimeout       time.Duration
	ReconnectRetries  int
	ReconnectDelay    time.Duration
}

// StoreConfig configures the durable client-state store.
type StoreConfig struct {
	// DSN is a postgres connection string; empty selects the in-memory store.
	DSN string
}

// DebugConfig configures the local debug/metrics HTTP server.
type DebugConfig struct {
	Addr    string
	Enabled bool
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	OTLPEndpoint string
	Environment  string
}

// Load reads configuration from .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Addr:           getEnvOrDefault("CHAT_SERVER", "localhost:3000"),
			DevMode:        getBoolOrDefault("CHAT_DEV_MODE", true),
			RequestTimeout: getDurationOrDefault("CHAT_REQUEST_TIMEOUT", "15s"),
		},
		Realtime: RealtimeConfig{
			HeartbeatInterval: getDurationOrDefault("CHAT_WS_HEARTBEAT_INTERVAL", "30s"),
			PongTimeout:       getDurationOrDefault("CHAT_WS_PONG_TIMEOUT", "5s"),
			ReconnectRetries:  getIntOrDefault("CHAT_WS_RECONNECT_RETRIES", 3),
			ReconnectDelay:    getDurationOrDefault("CHAT_WS_RECONNECT_DELAY", "1s"),
		},
		Store: StoreConfig{
			DSN: os.Getenv("CHAT_STORE_DSN"),
		},
		Debug: DebugConfig{
			Addr:    getEnvOrDefault("CHAT_DEBUG_ADDR", ":9190"),
			Enabled: getBoolOrDefault("CHAT_DEBUG_ENABLED", true),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Environment:  getEnvOrDefault("CHAT_ENVIRONMENT", "dev"),
		},
	}
}

// BaseURL returns the REST base address derived from the server settings.
func (s ServerConfig) BaseURL() string {
	if s.DevMode {
		return "http://" + s.Addr
	}
	return "https://" + s.Addr
}

// WebsocketURL returns the realtime endpoint derived from the server settings.
func (s ServerConfig) WebsocketURL() string {
	if s.DevMode {
		return "ws://" + s.Addr + "/_ws"
	}
	return "wss://" + s.Addr + "/_ws"
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBoolOrDefault(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		log.Fatalf("invalid boolean for %s: %v", key, err)
	}
	return parsed
}

func getDurationOrDefault(key, fallback string) time.Duration {
	val := getEnvOrDefault(key, fallback)
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Fatalf("invalid duration for %s: %v", key, err)
	}
	return d
}

func getIntOrDefault(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer for %s: %v", key, err)
	}
	return parsed
}
