package domain

import (
	"fmt"
	"strings"
)

// ValidateExample проверяет, что вопрос и ответ не пустые
func ValidateExample(question, answer string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("вопрос %q: %w", question, ErrEmptyAnswer)
	}
	return nil
}
