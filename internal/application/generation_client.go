package application

import (
	"context"

	"fusionserver/internal/domain"
)

// GenerationClient は、画像生成サービスとの通信を行うクライアントのインターフェースです
type GenerationClient interface {
	// Generate は、リクエストの2枚の画像と指示を1回だけ送信し、最初の候補を返します
	Generate(ctx context.Context, apiKey string, req *domain.FusionRequest) (*domain.GenerationReply, error)
}

// CredentialSource は、生成サービスのAPIキーを提供します
type CredentialSource interface {
	APIKey() (string, error)
}

// FailureClassifier は、生成呼び出しの失敗を分類済みのエラーに変換します
type FailureClassifier func(err error) *domain.FusionError
