package domain

import "context"

// TrainingRepository интерфейс хранилища обучающих примеров.
// Ассистент только читает и дописывает данные, но никогда не изменяет и не удаляет их.
type TrainingRepository interface {
	// FetchAll возвращает все обучающие примеры
	FetchAll(ctx context.Context) ([]TrainingExample, error)

	// Append добавляет новый пример с confidence_score по умолчанию
	Append(ctx context.Context, question, answer, category string) error
}

// InteractionRepository интерфейс журнала вопросов и ответов
type InteractionRepository interface {
	// SaveInteraction сохраняет запись о взаимодействии
	SaveInteraction(ctx context.Context, interaction Interaction) error

	// ListInteractions возвращает последние записи, новые первыми.
	// Пустой classID означает все классы.
	ListInteractions(ctx context.Context, classID string, limit int) ([]Interaction, error)
}
