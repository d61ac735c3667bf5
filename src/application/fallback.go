package application

import (
	"strings"

	"study-assistant/src/domain"
)

// DefaultAnswer ответ, когда ни одно правило не сработало
const DefaultAnswer = "I'm here to help! I can assist with programming, study strategies, assignments, or platform navigation. Could you rephrase your question or give more details?"

// fallbackRule правило вида "вопрос содержит одно из ключевых слов"
type fallbackRule struct {
	keywords   []string
	category   string
	confidence float64
	answer     string
}

// fallbackRules проверяются сверху вниз, срабатывает первое подходящее
var fallbackRules = []fallbackRule{
	{
		keywords:   []string{"code", "program"},
		category:   domain.CategoryProgramming,
		confidence: 0.7,
		answer:     "I'd be happy to help with your programming question. Please provide more details about what you're trying to accomplish — include any code snippets or errors.",
	},
	{
		keywords:   []string{"assignment", "homework"},
		category:   domain.CategoryStudyTips,
		confidence: 0.7,
		answer:     "For assignment help: 1) Review requirements carefully, 2) Break it into small parts, 3) Start early, 4) Ask questions if stuck. Which part are you working on?",
	},
	{
		keywords:   []string{"grade", "score"},
		category:   domain.CategoryPlatform,
		confidence: 0.8,
		answer:     "You can view your grades in the dashboard under the 'Grades' section. Would you like help understanding a specific grade?",
	},
	{
		keywords:   []string{"study", "learn"},
		category:   domain.CategoryStudyTips,
		confidence: 0.75,
		answer:     "Effective study strategies: use active recall, spaced repetition, teach others, and study in focused 25–30 minute sessions. What subject are you studying?",
	},
}

// defaultRule ответ по умолчанию
var defaultRule = fallbackRule{
	category:   domain.CategoryGeneral,
	confidence: 0.5,
	answer:     DefaultAnswer,
}

func (r fallbackRule) matches(lower string) bool {
	for _, keyword := range r.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// FallbackGenerator формирует ответ по ключевым словам, когда база знаний не помогла
type FallbackGenerator struct{}

// NewFallbackGenerator создает генератор резервных ответов
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

// resolve находит первое сработавшее правило для вопроса
func (g *FallbackGenerator) resolve(question string) (fallbackRule, bool) {
	lower := strings.ToLower(question)
	for _, rule := range fallbackRules {
		if rule.matches(lower) {
			return rule, true
		}
	}
	return defaultRule, false
}

// Generate возвращает ответ по первому сработавшему правилу.
// meta принимается для совместимости с вызывающим кодом и не используется.
func (g *FallbackGenerator) Generate(question string, meta map[string]any) domain.ResponseResult {
	rule, matched := g.resolve(question)

	source := domain.SourceDefault
	if matched {
		source = domain.SourceGenerated
	}

	return domain.ResponseResult{
		Answer:     rule.answer,
		Confidence: rule.confidence,
		Category:   rule.category,
		Source:     source,
	}
}

// Categorize возвращает только категорию по той же таблице правил
func (g *FallbackGenerator) Categorize(question string) string {
	rule, _ := g.resolve(question)
	return rule.category
}
