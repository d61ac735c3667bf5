package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"study-assistant/src/domain"
)

// ClassIDKey ключ идентификатора класса в контексте вопроса
const ClassIDKey = "classId"

// InteractionRecorder асинхронно сохраняет вопросы и ответы в журнал.
// Ошибки записи только логируются.
type InteractionRecorder struct {
	repo   domain.InteractionRepository
	pool   *ants.Pool
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewInteractionRecorder создает журнал с пулом из poolSize воркеров
func NewInteractionRecorder(repo domain.InteractionRepository, poolSize int, logger *slog.Logger) (*InteractionRecorder, error) {
	if repo == nil {
		return nil, domain.ErrRepositoryRequired
	}
	if poolSize < 1 {
		poolSize = 1
	}
	if logger == nil {
		logger = slog.Default().With("component", "recorder")
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул воркеров: %w", err)
	}

	return &InteractionRecorder{
		repo:   repo,
		pool:   pool,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Record ставит запись о взаимодействии в очередь на сохранение
func (r *InteractionRecorder) Record(question string, meta map[string]any, resp domain.ResponseResult) {
	interaction := domain.Interaction{
		ID:         uuid.NewString(),
		ClassID:    ClassID(meta),
		Question:   question,
		Answer:     resp.Answer,
		Category:   resp.Category,
		Source:     resp.Source,
		Confidence: resp.Confidence,
		CreatedAt:  r.now().UTC(),
	}

	r.wg.Add(1)
	err := r.pool.Submit(func() {
		defer r.wg.Done()
		if err := r.repo.SaveInteraction(context.Background(), interaction); err != nil {
			r.logger.Error("ошибка сохранения взаимодействия", "id", interaction.ID, "error", err)
		}
	})
	if err != nil {
		r.wg.Done()
		r.logger.Error("не удалось поставить запись в очередь", "id", interaction.ID, "error", err)
	}
}

// Close дожидается сохранения всех записей и освобождает пул
func (r *InteractionRecorder) Close() {
	r.wg.Wait()
	r.pool.Release()
}

// ClassID извлекает идентификатор класса из контекста вопроса
func ClassID(meta map[string]any) string {
	v, ok := meta[ClassIDKey]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
