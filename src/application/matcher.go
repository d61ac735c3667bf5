package application

import "study-assistant/src/domain"

// MatchThreshold минимальное сходство (не включительно), при котором пример считается кандидатом
const MatchThreshold = 0.3

// Matcher ищет лучшее совпадение вопроса в базе знаний
type Matcher interface {
	FindBestMatch(question string, examples []domain.TrainingExample) (*domain.MatchResult, bool)
}

// LinearMatcher полный перебор базы знаний без индекса и кэша
type LinearMatcher struct {
	score     Scorer
	threshold float64
}

// NewLinearMatcher создает сопоставитель на основе косинусного сходства
func NewLinearMatcher() *LinearMatcher {
	return &LinearMatcher{
		score:     CosineSimilarity,
		threshold: MatchThreshold,
	}
}

// FindBestMatch возвращает пример с максимальным сходством.
// При равенстве побеждает первый пример. Сходство должно быть строго больше порога.
func (m *LinearMatcher) FindBestMatch(question string, examples []domain.TrainingExample) (*domain.MatchResult, bool) {
	var best *domain.TrainingExample
	highest := 0.0

	for i := range examples {
		score := m.score(question, examples[i].Question)
		if score > highest {
			highest = score
			best = &examples[i]
		}
	}

	if best == nil || highest <= m.threshold {
		return nil, false
	}

	return &domain.MatchResult{
		Answer:     best.Answer,
		Confidence: highest,
		Category:   best.Category,
	}, true
}
