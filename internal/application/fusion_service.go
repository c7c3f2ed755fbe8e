package application

import (
	"context"
	"time"

	"fusionserver/internal/domain"

	"go.uber.org/zap"
)

// FusionService は、画像合成に関するビジネスロジックを担当するサービスです
type FusionService struct {
	client      GenerationClient
	credentials CredentialSource
	classify    FailureClassifier
	logger      *zap.Logger
}

// NewFusionService は新しいFusionServiceインスタンスを作成します
func NewFusionService(client GenerationClient, credentials CredentialSource, classify FailureClassifier, logger *zap.Logger) *FusionService {
	if classify == nil {
		classify = domain.AsFusionError
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FusionService{
		client:      client,
		credentials: credentials,
		classify:    classify,
		logger:      logger,
	}
}

// Fuse は、2枚の画像を合成します
// 成功時は画像を、失敗時は*domain.FusionErrorを返します。両方を返すことはありません
func (s *FusionService) Fuse(ctx context.Context, req *domain.FusionRequest) (*domain.FusedImage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	apiKey, err := s.credentials.APIKey()
	if err != nil {
		s.logger.Error("APIキーが設定されていません", zap.Error(err))
		return nil, domain.NewConfigError("Server misconfigured: missing GOOGLE_API_KEY.", err)
	}

	s.logger.Info("画像合成をリクエスト中",
		zap.Int("base_size", req.BaseImage.Size()),
		zap.String("base_mime", req.BaseImage.EffectiveMIMEType()),
		zap.Int("product_size", req.ProductImage.Size()),
		zap.String("product_mime", req.ProductImage.EffectiveMIMEType()),
		zap.Int("instruction_length", len([]rune(req.Instruction))),
	)

	start := time.Now()
	reply, err := s.client.Generate(ctx, apiKey, req)
	if err != nil {
		fe := s.classify(err)
		s.logger.Warn("画像合成に失敗",
			zap.Stringer("kind", fe.Kind),
			zap.Int("retry_after_sec", fe.RetryAfterSeconds),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, fe
	}

	image, err := reply.Resolve()
	if err != nil {
		fe := domain.AsFusionError(err)
		s.logger.Warn("応答から画像を取得できませんでした",
			zap.Stringer("kind", fe.Kind),
			zap.String("model_text", fe.Detail),
		)
		return nil, fe
	}

	s.logger.Info("画像合成完了",
		zap.String("mime", image.MIMEType),
		zap.Int("size", len(image.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return image, nil
}
