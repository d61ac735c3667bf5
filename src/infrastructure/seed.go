package infrastructure

import (
	"context"
	"fmt"

	"study-assistant/src/domain"
)

// DefaultTrainingData начальная база знаний для пустого хранилища
var DefaultTrainingData = []domain.TrainingExample{
	{Question: "What is a variable?", Answer: "A variable is a container that stores data values. Think of it like a labeled box where you can put information.", Category: domain.CategoryProgramming},
	{Question: "How do I declare a variable in JavaScript?", Answer: "You can declare a variable using let, const, or var. Example: let myVariable = 5", Category: domain.CategoryProgramming},
	{Question: "What is a function?", Answer: "A function is a reusable block of code that performs a specific task. Define it once and call it multiple times.", Category: domain.CategoryProgramming},
	{Question: "What is an array?", Answer: `An array is a data structure that stores multiple values in a single variable. Example: let fruits = ["apple", "banana", "orange"]`, Category: domain.CategoryProgramming},
	{Question: "How do loops work?", Answer: "A loop allows repeating code multiple times. Common types: for, while, and forEach loops.", Category: domain.CategoryProgramming},
	{Question: "What is debugging?", Answer: "Debugging is the process of finding and fixing errors in code. Use console.log() to inspect values.", Category: domain.CategoryProgramming},
	{Question: "How can I improve my grades?", Answer: "Focus on understanding concepts, practice regularly, ask questions, and review materials before exams.", Category: domain.CategoryStudyTips},
	{Question: "What is time management?", Answer: "Time management is organizing your schedule to balance studying, assignments, and personal life effectively.", Category: domain.CategoryStudyTips},
	{Question: "How do I submit my assignment?", Answer: "Navigate to your class, select the assignment, upload or paste your work, and click submit.", Category: domain.CategoryPlatform},
	{Question: "Where can I see my grades?", Answer: "Your grades are visible in the Grades section of your dashboard or within each graded assignment.", Category: domain.CategoryPlatform},
}

// SeedTrainingData заполняет хранилище начальными данными, если оно пустое.
// Возвращает количество добавленных примеров.
func SeedTrainingData(ctx context.Context, repo domain.TrainingRepository) (int, error) {
	existing, err := repo.FetchAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка проверки хранилища: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, ex := range DefaultTrainingData {
		if err := repo.Append(ctx, ex.Question, ex.Answer, ex.Category); err != nil {
			return i, fmt.Errorf("ошибка добавления примера %q: %w", ex.Question, err)
		}
	}
	return len(DefaultTrainingData), nil
}
