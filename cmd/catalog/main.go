// カタログAPIサーバーのエントリポイント。
// 書籍・著者・アーティスト・表紙の閲覧APIと、JWTで保護された管理者用APIを提供する。
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nao1215/bookstore/internal/catalog"
	"github.com/nao1215/bookstore/internal/config"
	"github.com/nao1215/bookstore/pkg/logx"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr io.Writer) int {
	// .envがなくても環境変数だけで起動できる
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger := logx.New("error", stderr)
		logger.Error().Err(err).Msg("設定の読み込みに失敗")
		return 1
	}
	logger := logx.New(cfg.LogLevel, stderr).With().Str("service", "catalog").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := catalog.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("カタログサーバーの初期化に失敗")
		return 1
	}
	defer server.Close()

	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("カタログサーバーの実行に失敗")
		return 1
	}
	return 0
}
