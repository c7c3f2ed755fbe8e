package config

import (
	"fmt"
	"os"
	"strings"

	"fusionserver/internal/domain"
)

// EnvCredentialSource は、環境変数からAPIキーを読み込みます
// 値はキャッシュせず、呼び出しのたびに読み直します
type EnvCredentialSource struct {
	key string
}

// NewEnvCredentialSource は、新しいEnvCredentialSourceを作成します
func NewEnvCredentialSource(key string) *EnvCredentialSource {
	if key == "" {
		key = DefaultAPIKeyEnv
	}
	return &EnvCredentialSource{key: key}
}

// Name は、読み込み対象の環境変数名を返します
func (s *EnvCredentialSource) Name() string {
	return s.key
}

// APIKey は、現在のAPIキーを返します。未設定の場合はErrMissingCredentialを返します
func (s *EnvCredentialSource) APIKey() (string, error) {
	value := strings.TrimSpace(os.Getenv(s.key))
	if value == "" {
		return "", fmt.Errorf("%s が設定されていません: %w", s.key, domain.ErrMissingCredential)
	}
	return value, nil
}
