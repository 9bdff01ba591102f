package config

import (
	"os"
	"strconv"
	"time"
)

// AppConfig holds process-level settings read from the environment.
type AppConfig struct {
	LLM       LLMConfig
	Server    ServerConfig
	Telegram  TelegramConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Speech    SpeechConfig

	InterviewConfigPath string
	ResultsDir          string
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int
	SessionIdleTTL     time.Duration
}

type TelegramConfig struct {
	Token string
	Debug bool
}

type LogConfig struct {
	Level string
	File  string
}

type TelemetryConfig struct {
	Enabled bool
	Dir     string
}

// SpeechConfig names the external commands used for text-to-speech and
// microphone capture. Empty means the capability is not available.
type SpeechConfig struct {
	SynthesizeCommand string
	RecordCommand     string
}

// LoadAppConfig reads the process configuration from the environment.
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		LLM: *LoadLLMConfig(),
		Server: ServerConfig{
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
			SessionIdleTTL:     getEnvAsDuration("SESSION_IDLE_TTL", 24*time.Hour),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TELEGRAM_BOT_TOKEN", ""),
			Debug: getEnvAsBool("TELEGRAM_DEBUG", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled: getEnvAsBool("TELEMETRY_ENABLED", false),
			Dir:     getEnv("TELEMETRY_DIR", "logs"),
		},
		Speech: SpeechConfig{
			SynthesizeCommand: getEnv("SPEECH_COMMAND", ""),
			RecordCommand:     getEnv("RECORD_COMMAND", ""),
		},
		InterviewConfigPath: getEnv("INTERVIEW_CONFIG", "config/interview.yaml"),
		ResultsDir:          getEnv("RESULTS_DIR", "results"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
