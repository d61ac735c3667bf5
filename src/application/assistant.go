package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"study-assistant/src/domain"
)

// PresentThreshold минимальная уверенность (не включительно) для ответа из базы знаний.
// Совпадения с уверенностью в (MatchThreshold, PresentThreshold] отбрасываются в пользу резервного ответа.
const PresentThreshold = 0.5

// corpus неизменяемый снимок базы знаний
type corpus struct {
	examples []domain.TrainingExample
}

// Assistant отвечает на вопросы по базе знаний и пополняет ее по отзывам
type Assistant struct {
	repo     domain.TrainingRepository
	matcher  Matcher
	fallback *FallbackGenerator
	logger   *slog.Logger

	corpus atomic.Pointer[corpus]
	// reloadSeq выдает номера загрузкам в порядке их начала
	reloadSeq atomic.Uint64
	// publishMu защищает только сравнение номера и подмену снимка, без обращений к хранилищу
	publishMu sync.Mutex
	published uint64
}

// Option настраивает Assistant
type Option func(*Assistant)

// WithMatcher заменяет стратегию поиска совпадений
func WithMatcher(matcher Matcher) Option {
	return func(a *Assistant) {
		if matcher != nil {
			a.matcher = matcher
		}
	}
}

// WithLogger задает логгер. По умолчанию slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssistant создает ассистента и загружает базу знаний.
// Если хранилище недоступно, ассистент стартует с пустой базой и отвечает только по правилам.
func NewAssistant(ctx context.Context, repo domain.TrainingRepository, opts ...Option) (*Assistant, error) {
	if repo == nil {
		return nil, domain.ErrRepositoryRequired
	}

	a := &Assistant{
		repo:     repo,
		matcher:  NewLinearMatcher(),
		fallback: NewFallbackGenerator(),
		logger:   slog.Default().With("component", "assistant"),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.corpus.Store(&corpus{})
	if err := a.Reload(ctx); err != nil {
		a.logger.Warn("хранилище недоступно, работаем с пустой базой знаний", "error", err)
	}

	return a, nil
}

// Reload заново загружает всю базу знаний и атомарно подменяет снимок.
// При ошибке остается прежний снимок. Обращение к хранилищу выполняется без блокировок;
// если позже начатая загрузка уже опубликована, результат отбрасывается.
func (a *Assistant) Reload(ctx context.Context) error {
	ticket := a.reloadSeq.Add(1)

	examples, err := a.repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("ошибка загрузки обучающих данных: %w", err)
	}

	if a.publish(ticket, examples) {
		a.logger.Info("база знаний загружена", "examples", len(examples))
	} else {
		a.logger.Debug("устаревшая загрузка отброшена", "ticket", ticket)
	}
	return nil
}

// publish подменяет снимок, если ticket новее опубликованного
func (a *Assistant) publish(ticket uint64, examples []domain.TrainingExample) bool {
	a.publishMu.Lock()
	defer a.publishMu.Unlock()

	if ticket <= a.published {
		return false
	}
	a.published = ticket
	a.corpus.Store(&corpus{examples: examples})
	return true
}

// examples возвращает текущий снимок. Срез нельзя изменять.
func (a *Assistant) examples() []domain.TrainingExample {
	return a.corpus.Load().examples
}

// Ask отвечает на вопрос: сначала база знаний, затем правила по ключевым словам.
// meta передается генератору резервных ответов и на решение не влияет.
func (a *Assistant) Ask(question string, meta map[string]any) domain.ResponseResult {
	match, ok := a.matcher.FindBestMatch(question, a.examples())
	if ok && match.Confidence > PresentThreshold {
		return domain.ResponseResult{
			Answer:     match.Answer,
			Confidence: match.Confidence,
			Category:   match.Category,
			Source:     domain.SourceKnowledgeBase,
		}
	}

	if ok {
		a.logger.Debug("совпадение ниже порога показа", "confidence", match.Confidence)
	}

	return a.fallback.Generate(question, meta)
}

// Feedback учитывает отзыв пользователя. Полезный ответ дописывается в хранилище
// вместе с категорией вопроса, после чего база знаний перезагружается целиком.
// Бесполезный ответ игнорируется.
func (a *Assistant) Feedback(ctx context.Context, question, answer string, helpful bool) error {
	if !helpful {
		return nil
	}
	if err := domain.ValidateExample(question, answer); err != nil {
		return err
	}

	category := a.fallback.Categorize(question)

	if err := a.repo.Append(ctx, question, answer, category); err != nil {
		return fmt.Errorf("ошибка сохранения обучающего примера: %w", err)
	}

	// пример уже записан: отмена запроса не должна помешать обновить базу знаний
	if err := a.Reload(context.WithoutCancel(ctx)); err != nil {
		a.logger.Error("пример сохранен, но база знаний не обновлена", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrReloadFailed, err)
	}

	a.logger.Info("добавлен обучающий пример", "category", category)
	return nil
}

// Stats возвращает статистику по текущему снимку базы знаний
func (a *Assistant) Stats() domain.Stats {
	examples := a.examples()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	total := 0.0
	for _, ex := range examples {
		if _, ok := seen[ex.Category]; !ok {
			seen[ex.Category] = struct{}{}
			categories = append(categories, ex.Category)
		}
		total += ex.ConfidenceScore
	}
	sort.Strings(categories)

	avg := 0.0
	if len(examples) > 0 {
		avg = total / float64(len(examples))
	}

	return domain.Stats{
		TrainingExamples:  len(examples),
		Categories:        categories,
		AverageConfidence: avg,
	}
}
