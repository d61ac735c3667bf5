package mocks

import (
	"context"
	"sync"
	"time"

	"study-assistant/src/domain"
)

// MockTrainingRepository имитация хранилища обучающих данных для тестирования
type MockTrainingRepository struct {
	mu           sync.Mutex
	Examples     []domain.TrainingExample
	Interactions []domain.Interaction
	FetchAllFn   func(ctx context.Context) ([]domain.TrainingExample, error)
	AppendFn     func(ctx context.Context, question, answer, category string) error
	SaveFn       func(ctx context.Context, interaction domain.Interaction) error
	FetchCalls   int
	AppendCalls  int
}

func NewMockTrainingRepository(examples ...domain.TrainingExample) *MockTrainingRepository {
	return &MockTrainingRepository{Examples: examples}
}

func (m *MockTrainingRepository) FetchAll(ctx context.Context) ([]domain.TrainingExample, error) {
	m.mu.Lock()
	m.FetchCalls++
	fn := m.FetchAllFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Возвращаем копию, чтобы последующие Append не меняли выданный снимок
	out := make([]domain.TrainingExample, len(m.Examples))
	copy(out, m.Examples)
	return out, nil
}

func (m *MockTrainingRepository) Append(ctx context.Context, question, answer, category string) error {
	m.mu.Lock()
	m.AppendCalls++
	fn := m.AppendFn
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, question, answer, category); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Examples = append(m.Examples, domain.TrainingExample{
		ID:              int64(len(m.Examples) + 1),
		Question:        question,
		Answer:          answer,
		Category:        category,
		ConfidenceScore: domain.DefaultConfidenceScore,
		CreatedAt:       time.Now(),
	})
	return nil
}

func (m *MockTrainingRepository) SaveInteraction(ctx context.Context, interaction domain.Interaction) error {
	m.mu.Lock()
	fn := m.SaveFn
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, interaction); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Interactions = append(m.Interactions, interaction)
	return nil
}

func (m *MockTrainingRepository) ListInteractions(ctx context.Context, classID string, limit int) ([]domain.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Interaction
	for i := len(m.Interactions) - 1; i >= 0; i-- {
		if classID != "" && m.Interactions[i].ClassID != classID {
			continue
		}
		out = append(out, m.Interactions[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SetSaveFn заменяет хук SaveInteraction, пока мок используется из других горутин
func (m *MockTrainingRepository) SetSaveFn(fn func(ctx context.Context, interaction domain.Interaction) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveFn = fn
}

// SavedInteractions возвращает копию сохраненных взаимодействий
func (m *MockTrainingRepository) SavedInteractions() []domain.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Interaction, len(m.Interactions))
	copy(out, m.Interactions)
	return out
}
