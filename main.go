package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"study-assistant/src/application"
	"study-assistant/src/config"
	"study-assistant/src/infrastructure"
)

func main() {
	app := &cli.App{
		Name:  "study-assistant",
		Usage: "Ассистент для ответов на вопросы студентов",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Путь к файлу конфигурации",
				Value:   "config/config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Уровень логирования (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			askCommand(),
			feedbackCommand(),
			statsCommand(),
			seedCommand(),
			batchCommand(),
			historyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Ошибка: %v", err)
	}
}

// runtimeEnv общие зависимости команд
type runtimeEnv struct {
	cfg       config.Config
	logger    *slog.Logger
	store     infrastructure.Store
	assistant *application.Assistant
	recorder  *application.InteractionRecorder
}

// Close дожидается записи журнала и закрывает хранилище
func (e *runtimeEnv) Close() {
	if e.recorder != nil {
		e.recorder.Close()
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn("ошибка закрытия хранилища", "error", err)
	}
}

// setup загружает конфигурацию, открывает хранилище и создает ассистента
func setup(c *cli.Context) (*runtimeEnv, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	logger, err := config.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, err := infrastructure.OpenStore(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Storage.Seed {
		n, err := infrastructure.SeedTrainingData(ctx, store)
		if err != nil {
			logger.Warn("не удалось заполнить хранилище начальными данными", "error", err)
		} else if n > 0 {
			logger.Info("хранилище заполнено начальными данными", "examples", n)
		}
	}

	assistant, err := application.NewAssistant(ctx, store,
		application.WithLogger(logger.With("component", "assistant")))
	if err != nil {
		store.Close()
		return nil, err
	}

	env := &runtimeEnv{cfg: cfg, logger: logger, store: store, assistant: assistant}

	if cfg.Recorder.Enabled {
		recorder, err := application.NewInteractionRecorder(store, cfg.Recorder.PoolSize,
			logger.With("component", "recorder"))
		if err != nil {
			store.Close()
			return nil, err
		}
		env.recorder = recorder
	}

	return env, nil
}
