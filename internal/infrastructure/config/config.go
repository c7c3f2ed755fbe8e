package config

import "time"

const (
	// DefaultImageModelName は、画像合成に使用するモデル名です
	DefaultImageModelName = "gemini-2.5-flash-image"

	// DefaultAPIKeyEnv は、APIキーを読み込む環境変数名です
	DefaultAPIKeyEnv = "GOOGLE_API_KEY"
)

// GeminiConfig は、Gemini API関連の設定を定義します
type GeminiConfig struct {
	ModelName string
	APIKeyEnv string // APIキーはリクエストごとにこの環境変数から読み込む
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		ModelName: DefaultImageModelName,
		APIKeyEnv: DefaultAPIKeyEnv,
	}
}

// ServerConfig は、HTTPサーバー関連の設定を定義します
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64 // multipartボディ全体の上限
}

// LogConfig は、ログ出力関連の設定を定義します
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// AppConfig は、アプリケーション全体の設定を定義します
type AppConfig struct {
	Server ServerConfig
	Gemini GeminiConfig
	Log    LogConfig
}
