package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fusionserver/configs"
	"fusionserver/internal/application"
	"fusionserver/internal/infrastructure/config"
	"fusionserver/internal/infrastructure/gemini"
	"fusionserver/internal/infrastructure/logging"
	"fusionserver/internal/presentation/web"

	"go.uber.org/zap"
)

func main() {
	// 設定を読み込み
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの作成に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("画像合成サーバーを起動中...", zap.String("model", cfg.Gemini.ModelName))

	// APIキーはリクエストごとに読み込むため、起動時は警告のみ
	credentials := config.NewEnvCredentialSource(cfg.Gemini.APIKeyEnv)
	if _, err := credentials.APIKey(); err != nil {
		logger.Warn("APIキーが未設定です。設定されるまで全リクエストが500になります", zap.String("env", credentials.Name()))
	}

	// アプリケーションサービスを作成
	client := gemini.NewFusionClient(&cfg.Gemini)
	fusionService := application.NewFusionService(client, credentials, gemini.ClassifyFailure, logger)

	// HTTPハンドラを作成
	handler := web.NewFusionHandler(fusionService, cfg.Server.MaxUploadBytes, logger)
	router := web.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTPサーバーを開始しました", zap.String("addr", server.Addr), zap.String("path", web.FusePath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTPサーバーの起動に失敗", zap.Error(err))
		}
	}()

	// シグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 終了シグナルを待機
	<-stop
	logger.Info("終了シグナルを受信しました。サーバーを停止中...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("サーバーの停止に失敗", zap.Error(err))
		return
	}

	logger.Info("サーバーが正常に停止しました。")
}
