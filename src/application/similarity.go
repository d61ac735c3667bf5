package application

import (
	"math"
	"strings"
)

// Scorer функция лексического сходства двух текстов, результат в [0, 1]
type Scorer func(a, b string) float64

// tokenize приводит текст к нижнему регистру и разбивает по пробельным символам.
// Пустая строка и строка из пробелов дают пустой набор токенов.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// termFrequencies считает количество вхождений каждого токена
func termFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

// CosineSimilarity вычисляет косинусное сходство векторов частот слов.
// Словарь строится как объединение токенов обеих строк.
// Если у одного из векторов нулевая длина, сходство равно 0.
func CosineSimilarity(a, b string) float64 {
	freqA := termFrequencies(tokenize(a))
	freqB := termFrequencies(tokenize(b))
	if len(freqA) == 0 || len(freqB) == 0 {
		return 0
	}

	var dot, normA, normB int
	for word, countA := range freqA {
		normA += countA * countA
		// слова, которых нет в B, дают нулевой вклад в скалярное произведение
		dot += countA * freqB[word]
	}
	for _, countB := range freqB {
		normB += countB * countB
	}

	// sqrt(normA*normB) вместо sqrt(normA)*sqrt(normB): для одинаковых текстов результат ровно 1
	similarity := float64(dot) / math.Sqrt(float64(normA)*float64(normB))
	return math.Min(similarity, 1)
}
