package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fusionserver/internal/infrastructure/config"

	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Server config.ServerConfig
	Gemini config.GeminiConfig
	Log    config.LogConfig
}

// LoadConfig は、環境変数から設定を読み込みます
// APIキーはここでは検証しません。リクエストごとに読み込まれます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Printf("警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	config := &Config{
		Server: config.ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			ReadTimeout:     getEnvAsDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:     getEnvAsDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxUploadBytes:  getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 32<<20),
		},
		Gemini: *config.DefaultGeminiConfig(),
		Log: config.LogConfig{
			Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate は、設定の妥当性を検証します
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT が設定されていません")
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("PORT は数値である必要があります: %s", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT は正の値である必要があります")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT は正の値である必要があります")
	}

	if c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("SERVER_IDLE_TIMEOUT は正の値である必要があります")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT は正の値である必要があります")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES は正の整数である必要があります")
	}

	if c.Gemini.ModelName == "" {
		return fmt.Errorf("モデル名が設定されていません")
	}

	if c.Gemini.APIKeyEnv == "" {
		return fmt.Errorf("APIキーの環境変数名が設定されていません")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL は debug, info, warn, error のいずれかである必要があります: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT は json または console である必要があります: %s", c.Log.Format)
	}

	return nil
}

// Addr は、HTTPサーバーの待ち受けアドレスを返します
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64OrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は、環境変数を時間として取得し、存在しない場合はデフォルト値を返します
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
