package application

import (
	"context"

	"study-assistant/src/domain"
)

// AssistantService интерфейс ассистента для транспортного слоя
type AssistantService interface {
	// Ask отвечает на вопрос
	Ask(question string, meta map[string]any) domain.ResponseResult

	// Feedback учитывает отзыв о полезности ответа
	Feedback(ctx context.Context, question, answer string, helpful bool) error

	// Stats возвращает статистику по базе знаний
	Stats() domain.Stats
}

var _ AssistantService = (*Assistant)(nil)
