package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"

	"study-assistant/src/api"
	"study-assistant/src/application"
	"study-assistant/src/domain"
	"study-assistant/src/infrastructure"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Запустить HTTP сервер",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Адрес для прослушивания (по умолчанию из конфигурации)"},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			addr := env.cfg.Server.Addr
			if a := c.String("addr"); a != "" {
				addr = a
			}

			gin.SetMode(gin.ReleaseMode)
			var recorder api.Recorder
			if env.recorder != nil {
				recorder = env.recorder
			}
			handler := api.NewHandler(env.assistant, recorder, env.store, env.logger.With("component", "api"))
			srv := &http.Server{Addr: addr, Handler: api.NewRouter(handler)}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				env.logger.Info("сервер запущен", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("ошибка сервера: %w", err)
			case <-ctx.Done():
			}

			env.logger.Info("остановка сервера")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Задать вопрос ассистенту",
		ArgsUsage: "<вопрос>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "class", Usage: "Идентификатор класса для журнала"},
		},
		Action: func(c *cli.Context) error {
			question := strings.Join(c.Args().Slice(), " ")

			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			meta := map[string]any{}
			if class := c.String("class"); class != "" {
				meta[application.ClassIDKey] = class
			}

			resp := env.assistant.Ask(question, meta)
			if env.recorder != nil {
				env.recorder.Record(question, meta, resp)
			}
			return printJSON(resp)
		},
	}
}

func feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Отметить ответ как полезный или бесполезный",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Required: true},
			&cli.StringFlag{Name: "answer", Aliases: []string{"a"}, Required: true},
			&cli.BoolFlag{Name: "helpful", Value: true, Usage: "Ответ был полезен"},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.assistant.Feedback(c.Context, c.String("question"), c.String("answer"), c.Bool("helpful")); err != nil {
				return fmt.Errorf("ошибка обработки отзыва: %w", err)
			}
			return printJSON(env.assistant.Stats())
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Показать статистику базы знаний",
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()
			return printJSON(env.assistant.Stats())
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Заполнить пустое хранилище начальными примерами",
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			n, err := infrastructure.SeedTrainingData(c.Context, env.store)
			if err != nil {
				return err
			}
			fmt.Printf("Добавлено примеров: %d\n", n)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Показать журнал вопросов",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "class", Usage: "Фильтр по классу"},
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			interactions, err := env.store.ListInteractions(c.Context, c.String("class"), c.Int("limit"))
			if err != nil {
				return err
			}
			return printJSON(interactions)
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Ответить на вопросы из файла (по одному на строку)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
			&cli.IntFlag{Name: "workers", Value: 4},
		},
		Action: func(c *cli.Context) error {
			questions, err := readLines(c.String("file"))
			if err != nil {
				return err
			}

			env, err := setup(c)
			if err != nil {
				return err
			}
			defer env.Close()

			results, err := answerAll(env.assistant, questions, c.Int("workers"))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			for i, resp := range results {
				line := struct {
					Question string `json:"question"`
					domain.ResponseResult
				}{questions[i], resp}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// answerAll отвечает на вопросы параллельно, сохраняя порядок результатов
func answerAll(assistant application.AssistantService, questions []string, workers int) ([]domain.ResponseResult, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул воркеров: %w", err)
	}
	defer pool.Release()

	results := make([]domain.ResponseResult, len(questions))
	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = assistant.Ask(q, nil)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("ошибка постановки задачи: %w", err)
		}
	}
	wg.Wait()

	return results, nil
}

// readLines читает непустые строки файла
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	return lines, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
