package domain

import "time"

// Категории, которые назначает генератор резервных ответов.
// Набор открыт: в хранилище могут встречаться и другие значения.
const (
	CategoryProgramming = "programming"
	CategoryStudyTips   = "study-tips"
	CategoryPlatform    = "platform"
	CategoryGeneral     = "general"
)

// DefaultConfidenceScore значение confidence_score для новых примеров
const DefaultConfidenceScore = 1.0

// Source происхождение ответа ассистента
type Source string

const (
	SourceKnowledgeBase Source = "knowledge-base"
	SourceGenerated     Source = "generated"
	SourceDefault       Source = "default"
)

// TrainingExample представляет пару вопрос/ответ из обучающей выборки.
// ConfidenceScore хранится как метаданные и учитывается только в статистике.
type TrainingExample struct {
	ID              int64     `json:"id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Category        string    `json:"category"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchResult лучшее совпадение из базы знаний
type MatchResult struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// ResponseResult ответ ассистента на вопрос
type ResponseResult struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
	Source     Source  `json:"source"`
}

// Stats агрегированная статистика по базе знаний
type Stats struct {
	TrainingExamples  int      `json:"trainingExamples"`
	Categories        []string `json:"categories"`
	AverageConfidence float64  `json:"averageConfidence"`
}

// Interaction запись о заданном вопросе и выданном ответе
type Interaction struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id,omitempty"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	Source     Source    `json:"source"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
