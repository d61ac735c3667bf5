package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant/src/domain"
	"study-assistant/src/mocks"
)

func newTestAssistant(t *testing.T, repo *mocks.MockTrainingRepository) *Assistant {
	t.Helper()
	a, err := NewAssistant(context.Background(), repo)
	require.NoError(t, err)
	return a
}

func seedCorpus() []domain.TrainingExample {
	return []domain.TrainingExample{
		example("What is a variable?", "A variable is a container that stores data values.", domain.CategoryProgramming),
		example("What is a function?", "A function is a reusable block of code.", domain.CategoryProgramming),
		example("How do I submit my assignment?", "Open the class and click submit.", domain.CategoryPlatform),
		example("Where can I see my grades?", "In the Grades section of your dashboard.", domain.CategoryPlatform),
	}
}

func TestNewAssistantRequiresRepository(t *testing.T) {
	_, err := NewAssistant(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrRepositoryRequired)
}

func TestAskKnowledgeBase(t *testing.T) {
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(seedCorpus()...))

	resp := a.Ask("Where can I see my grades?", map[string]any{})
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
	assert.Equal(t, 1.0, resp.Confidence)
	assert.Equal(t, domain.CategoryPlatform, resp.Category)
	assert.Equal(t, "In the Grades section of your dashboard.", resp.Answer)
}

func TestAskGeneratedProgramming(t *testing.T) {
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(seedCorpus()...))

	resp := a.Ask("I need help with code", map[string]any{})
	assert.Equal(t, domain.SourceGenerated, resp.Source)
	assert.Equal(t, domain.CategoryProgramming, resp.Category)
	assert.Equal(t, 0.7, resp.Confidence)
}

func TestAskDefault(t *testing.T) {
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(seedCorpus()...))

	resp := a.Ask("asdkjashdkjahsd", map[string]any{})
	assert.Equal(t, domain.SourceDefault, resp.Source)
	assert.Equal(t, domain.CategoryGeneral, resp.Category)
	assert.Equal(t, 0.5, resp.Confidence)
	assert.Equal(t, DefaultAnswer, resp.Answer)
}

func TestAskEmptyQuestion(t *testing.T) {
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(seedCorpus()...))

	for _, q := range []string{"", "   ", "\t\n"} {
		resp := a.Ask(q, nil)
		assert.Equal(t, domain.SourceDefault, resp.Source)
		assert.Equal(t, domain.CategoryGeneral, resp.Category)
	}
}

func TestAskRulePrecedenceWithEmptyCorpus(t *testing.T) {
	a := newTestAssistant(t, mocks.NewMockTrainingRepository())

	resp := a.Ask("I need help with my code assignment", map[string]any{})
	assert.Equal(t, domain.CategoryProgramming, resp.Category)
	assert.Equal(t, domain.SourceGenerated, resp.Source)
}

func TestAskPresentThresholdExclusive(t *testing.T) {
	// 5 общих слов из 10 => уверенность ровно 0.5
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(
		example("t1 t2 t3 t4 t5 u6 u7 u8 u9 u10", "half match", domain.CategoryProgramming),
	))

	match, ok := a.matcher.FindBestMatch("t1 t2 t3 t4 t5 t6 t7 t8 t9 t10", a.examples())
	require.True(t, ok)
	assert.Equal(t, 0.5, match.Confidence)

	resp := a.Ask("t1 t2 t3 t4 t5 t6 t7 t8 t9 t10", nil)
	assert.Equal(t, domain.SourceDefault, resp.Source)
	assert.NotEqual(t, "half match", resp.Answer)
}

func TestAskDiscardsMatchInGap(t *testing.T) {
	// 4 общих слова из 10 => 0.4: кандидат найден, но не показывается
	a := newTestAssistant(t, mocks.NewMockTrainingRepository(
		example("t1 t2 t3 t4 u5 u6 u7 u8 u9 u10", "gap match", domain.CategoryProgramming),
	))

	resp := a.Ask("t1 t2 t3 t4 t5 t6 t7 t8 t9 t10", nil)
	assert.Equal(t, domain.SourceDefault, resp.Source)

	// 6 из 10 => 0.6, показывается
	a = newTestAssistant(t, mocks.NewMockTrainingRepository(
		example("t1 t2 t3 t4 t5 t6 u7 u8 u9 u10", "good match", domain.CategoryProgramming),
	))
	resp = a.Ask("t1 t2 t3 t4 t5 t6 t7 t8 t9 t10", nil)
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
	assert.Equal(t, "good match", resp.Answer)
	assert.InDelta(t, 0.6, resp.Confidence, 1e-12)
}

func TestDegradedModeWhenStoreUnavailable(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	repo.FetchAllFn = func(ctx context.Context) ([]domain.TrainingExample, error) {
		return nil, errors.New("connection refused")
	}

	a, err := NewAssistant(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Stats().TrainingExamples)
	resp := a.Ask("Where can I see my grades?", nil)
	assert.Equal(t, domain.SourceGenerated, resp.Source)
	assert.Equal(t, domain.CategoryPlatform, resp.Category)
}

func TestFeedbackRoundTrip(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)

	q := "How do I reset my password on the portal?"
	ans := "Use the Forgot password link on the login page."

	require.NoError(t, a.Feedback(context.Background(), q, ans, true))

	resp := a.Ask(q, map[string]any{})
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
	assert.Equal(t, 1.0, resp.Confidence)
	assert.Equal(t, ans, resp.Answer)
	assert.Equal(t, domain.CategoryGeneral, resp.Category)
	assert.Equal(t, 5, a.Stats().TrainingExamples)
	assert.Equal(t, 2, repo.FetchCalls)
}

func TestFeedbackCategorizesWithRuleTable(t *testing.T) {
	repo := mocks.NewMockTrainingRepository()
	a := newTestAssistant(t, repo)

	require.NoError(t, a.Feedback(context.Background(), "my code assignment fails", "Check the loop bounds.", true))
	require.NoError(t, a.Feedback(context.Background(), "assignment grade", "Ask your teacher.", true))

	require.Len(t, repo.Examples, 2)
	assert.Equal(t, domain.CategoryProgramming, repo.Examples[0].Category)
	assert.Equal(t, domain.CategoryStudyTips, repo.Examples[1].Category)
}

func TestFeedbackNotHelpfulIsNoop(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)
	before := a.Stats().TrainingExamples

	require.NoError(t, a.Feedback(context.Background(), "What is a loop?", "Something wrong", false))

	assert.Equal(t, before, a.Stats().TrainingExamples)
	assert.Equal(t, 0, repo.AppendCalls)
	assert.Equal(t, 1, repo.FetchCalls)
}

func TestFeedbackRejectsEmptyExample(t *testing.T) {
	repo := mocks.NewMockTrainingRepository()
	a := newTestAssistant(t, repo)

	assert.ErrorIs(t, a.Feedback(context.Background(), "  ", "answer", true), domain.ErrEmptyQuestion)
	assert.ErrorIs(t, a.Feedback(context.Background(), "question", "", true), domain.ErrEmptyAnswer)
	assert.Equal(t, 0, repo.AppendCalls)
}

func TestFeedbackAppendFailureKeepsCorpus(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)
	repo.AppendFn = func(ctx context.Context, question, answer, category string) error {
		return errors.New("disk full")
	}

	err := a.Feedback(context.Background(), "What is recursion?", "A function calling itself.", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrReloadFailed)

	assert.Equal(t, 4, a.Stats().TrainingExamples)
	assert.Equal(t, 1, repo.FetchCalls)
	assert.NotEqual(t, "A function calling itself.", a.Ask("What is recursion?", nil).Answer)
}

func TestFeedbackReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)
	repo.FetchAllFn = func(ctx context.Context) ([]domain.TrainingExample, error) {
		return nil, errors.New("timeout")
	}

	err := a.Feedback(context.Background(), "What is recursion?", "A function calling itself.", true)
	assert.ErrorIs(t, err, domain.ErrReloadFailed)

	// пример записан, но в памяти остался прежний снимок
	assert.Len(t, repo.Examples, 5)
	assert.Equal(t, 4, a.Stats().TrainingExamples)
}

func TestStats(t *testing.T) {
	examples := seedCorpus()
	examples[0].ConfidenceScore = 0.5

	a := newTestAssistant(t, mocks.NewMockTrainingRepository(examples...))
	stats := a.Stats()

	assert.Equal(t, 4, stats.TrainingExamples)
	assert.ElementsMatch(t, []string{domain.CategoryProgramming, domain.CategoryPlatform}, stats.Categories)
	assert.InDelta(t, 0.875, stats.AverageConfidence, 1e-12)
}

func TestStatsEmptyCorpus(t *testing.T) {
	stats := newTestAssistant(t, mocks.NewMockTrainingRepository()).Stats()

	assert.Equal(t, 0, stats.TrainingExamples)
	assert.Empty(t, stats.Categories)
	assert.Equal(t, 0.0, stats.AverageConfidence)
}

func TestConcurrentAskDuringFeedback(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				resp := a.Ask("What is a variable?", nil)
				assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Feedback(context.Background(), "learned question", "learned answer", true))
		}()
	}
	wg.Wait()

	assert.Equal(t, 14, a.Stats().TrainingExamples)
}

func TestFeedbackDoesNotWaitForOtherStoreCalls(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	repo.AppendFn = func(ctx context.Context, question, answer, category string) error {
		if question == "slow question" {
			close(entered)
			<-release
		}
		return nil
	}

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- a.Feedback(ctx, "slow question", "slow answer", true)
	}()
	<-entered

	fastDone := make(chan error, 1)
	go func() {
		fastDone <- a.Feedback(ctx, "fast question", "fast answer", true)
	}()
	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("второй отзыв ждет завершения чужой записи в хранилище")
	}
	assert.Equal(t, "fast answer", a.Ask("fast question", nil).Answer)

	reloadDone := make(chan error, 1)
	go func() {
		reloadDone <- a.Reload(ctx)
	}()
	select {
	case err := <-reloadDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("перезагрузка ждет завершения чужой записи в хранилище")
	}

	close(release)
	require.NoError(t, <-slowDone)
	assert.Equal(t, 6, a.Stats().TrainingExamples)
	assert.Equal(t, "slow answer", a.Ask("slow question", nil).Answer)
}

func TestReloadDiscardsStaleResult(t *testing.T) {
	repo := mocks.NewMockTrainingRepository(seedCorpus()...)
	a := newTestAssistant(t, repo)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	repo.FetchAllFn = func(ctx context.Context) ([]domain.TrainingExample, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return seedCorpus()[:1], nil
		}
		return seedCorpus(), nil
	}

	staleDone := make(chan error, 1)
	go func() {
		staleDone <- a.Reload(ctx)
	}()
	<-entered

	// загрузка, начатая позже, публикуется первой
	require.NoError(t, a.Reload(ctx))
	close(release)
	require.NoError(t, <-staleDone)

	assert.Equal(t, 4, a.Stats().TrainingExamples)
}

func TestFeedbackReloadsAfterRequestCancelled(t *testing.T) {
	repo := mocks.NewMockTrainingRepository()
	a := newTestAssistant(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	learned := example("How do I reset my password?", "Use the Forgot password link.", domain.CategoryGeneral)
	repo.AppendFn = func(ctx context.Context, question, answer, category string) error {
		// клиент отключился сразу после успешной записи
		cancel()
		return nil
	}
	repo.FetchAllFn = func(ctx context.Context) ([]domain.TrainingExample, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []domain.TrainingExample{learned}, nil
	}

	require.NoError(t, a.Feedback(ctx, learned.Question, learned.Answer, true))

	resp := a.Ask(learned.Question, nil)
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
	assert.Equal(t, learned.Answer, resp.Answer)
}

type fixedMatcher struct {
	result *domain.MatchResult
}

func (m fixedMatcher) FindBestMatch(string, []domain.TrainingExample) (*domain.MatchResult, bool) {
	return m.result, m.result != nil
}

func TestWithMatcher(t *testing.T) {
	a, err := NewAssistant(context.Background(), mocks.NewMockTrainingRepository(), WithMatcher(fixedMatcher{
		result: &domain.MatchResult{Answer: "stub", Confidence: 0.9, Category: "custom"},
	}))
	require.NoError(t, err)

	resp := a.Ask("anything", nil)
	assert.Equal(t, "stub", resp.Answer)
	assert.Equal(t, "custom", resp.Category)
	assert.Equal(t, domain.SourceKnowledgeBase, resp.Source)
}
