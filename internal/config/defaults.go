package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultMiniMaxBaseURL = "https://api.minimaxi.com/anthropic"
	DefaultMiniMaxModel   = "MiniMax-M2.5"

	DefaultAgentTimeout  = 300 // seconds
	DefaultMaxIterations = 8

	DefaultToolWorkers    = 4
	DefaultToolTimeout    = 30 // seconds
	DefaultMaxSequenceLen = 500

	DefaultSeniorCommissionRate  = 0.40
	DefaultRegularCommissionRate = 0.30

	DefaultExpiryReminderDays = 7

	DefaultDailySummaryHour   = 21
	DefaultDailySummaryMinute = 0

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
