package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/cli"
	"github.com/BuzzLyutic/task-cli/internal/config"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем логгер
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tasks:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := cli.NewRootCommand(cli.Options{
		Config: cfg,
		Logger: logger,
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Debug("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "tasks:", err)
		logger.Sync()
		os.Exit(1)
	}
}

// newLogger строит production-логгер, который пишет в stderr, чтобы не смешиваться с выводом команд.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}
