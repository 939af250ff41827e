// Package config loads runtime configuration from an optional JSON
// file and environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Audit
	EnableAuditLogging bool `json:"enable_audit_logging"`

	// Database
	DatabaseURL string `json:"database_url"`

	// AI / LLM
	MiniMaxAPIKey  string `json:"minimax_api_key"`
	MiniMaxBaseURL string `json:"minimax_base_url"`
	MiniMaxModel   string `json:"minimax_model"`
	AgentTimeout   int    `json:"agent_timeout"` // seconds, per chat turn
	MaxIterations  int    `json:"max_iterations"`

	// Executor
	ToolWorkers    int `json:"tool_workers"`
	ToolTimeout    int `json:"tool_timeout"` // seconds, per invocation
	MaxSequenceLen int `json:"max_sequence_len"`

	// Business rules
	SeniorTherapists      []string `json:"senior_therapists"`
	SeniorCommissionRate  float64  `json:"senior_commission_rate"`
	RegularCommissionRate float64  `json:"regular_commission_rate"`
	ExpiryReminderDays    int      `json:"expiry_reminder_days"`
	DailySummaryHour      int      `json:"daily_summary_hour"`
	DailySummaryMinute    int      `json:"daily_summary_minute"`
	EnableDailySummary    bool     `json:"enable_daily_summary"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                  DefaultHost,
		Port:                  DefaultPort,
		Environment:           DefaultEnvironment,
		APIPrefix:             DefaultAPIPrefix,
		LogLevel:              DefaultLogLevel,
		CORSOrigins:           DefaultCORSOrigins,
		APIKeyHeader:          "X-API-Key",
		EnableAuth:            false,
		RateLimitPerMinute:    DefaultRateLimitPerMinute,
		EnableAuditLogging:    true,
		MiniMaxBaseURL:        DefaultMiniMaxBaseURL,
		MiniMaxModel:          DefaultMiniMaxModel,
		AgentTimeout:          DefaultAgentTimeout,
		MaxIterations:         DefaultMaxIterations,
		ToolWorkers:           DefaultToolWorkers,
		ToolTimeout:           DefaultToolTimeout,
		MaxSequenceLen:        DefaultMaxSequenceLen,
		SeniorCommissionRate:  DefaultSeniorCommissionRate,
		RegularCommissionRate: DefaultRegularCommissionRate,
		ExpiryReminderDays:    DefaultExpiryReminderDays,
		DailySummaryHour:      DefaultDailySummaryHour,
		DailySummaryMinute:    DefaultDailySummaryMinute,
		EnableDailySummary:    true,
	}

	// Load from JSON config file if specified
	if path := getEnv("STOREPILOT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("STOREPILOT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("STOREPILOT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("STOREPILOT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("STOREPILOT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("STOREPILOT_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
		cfg.EnableAuth = true
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("MINIMAX_API_KEY", ""); v != "" {
		cfg.MiniMaxAPIKey = v
	}
	if v := getEnv("MINIMAX_BASE_URL", ""); v != "" {
		cfg.MiniMaxBaseURL = v
	}
	if v := getEnv("MINIMAX_MODEL", ""); v != "" {
		cfg.MiniMaxModel = v
	}
	if v := getEnv("STOREPILOT_AGENT_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.AgentTimeout = t
		}
	}
	if v := getEnv("STOREPILOT_MAX_ITERATIONS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIterations = n
		}
	}
	if v := getEnv("STOREPILOT_TOOL_WORKERS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ToolWorkers = n
		}
	}
	if v := getEnv("STOREPILOT_TOOL_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.ToolTimeout = t
		}
	}
	if v := getEnv("STOREPILOT_SENIOR_THERAPISTS", ""); v != "" {
		cfg.SeniorTherapists = strings.Split(v, ",")
	}
	if v := getEnv("STOREPILOT_SUMMARY_HOUR", ""); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			cfg.DailySummaryHour = h
		}
	}
	if v := getEnv("STOREPILOT_SUMMARY_MINUTE", ""); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.DailySummaryMinute = m
		}
	}
	if v := getEnv("STOREPILOT_ENABLE_SUMMARY", ""); v != "" {
		cfg.EnableDailySummary = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}
}

// IsSeniorTherapist reports whether name earns the senior commission
// rate. Matching is exact on the trimmed name.
func (c *Config) IsSeniorTherapist(name string) bool {
	name = strings.TrimSpace(name)
	for _, s := range c.SeniorTherapists {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// CommissionRate returns the commission rate for a therapist name.
func (c *Config) CommissionRate(therapist string) float64 {
	if c.IsSeniorTherapist(therapist) {
		return c.SeniorCommissionRate
	}
	return c.RegularCommissionRate
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
