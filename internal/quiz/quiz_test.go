package quiz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexibot/pkg/models"
)

func newTestEngine() *Engine {
	return NewEngine(rand.New(rand.NewSource(3)))
}

func manyWords(n int) []models.Word {
	words := make([]models.Word, n)
	for i := range words {
		words[i] = models.Word{
			Word:    fmt.Sprintf("word%d", i),
			Meaning: fmt.Sprintf("meaning %d", i),
		}
	}
	return words
}

func meaningsOf(words []models.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Meaning
	}
	return out
}

func TestBuildOneQuestionPerWord(t *testing.T) {
	e := newTestEngine()
	words := manyWords(6)

	questions := e.Build(words, meaningsOf(words))
	require.Len(t, questions, 6)

	for _, q := range questions {
		assert.Len(t, q.Options, 4)
		assert.Contains(t, q.Options, q.Correct)

		seen := make(map[string]bool)
		for _, opt := range q.Options {
			assert.False(t, seen[opt], "duplicate option %q", opt)
			seen[opt] = true
		}
	}
}

func TestBuildDistractorsExcludeCorrect(t *testing.T) {
	e := newTestEngine()
	words := manyWords(10)

	questions := e.Build(words, meaningsOf(words))
	for _, q := range questions {
		count := 0
		for _, opt := range q.Options {
			if opt == q.Correct {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestBuildPadsSmallDatasetWithPlaceholders(t *testing.T) {
	e := newTestEngine()
	words := []models.Word{{Word: "accept", Meaning: "agree to receive"}}

	questions := e.Build(words, meaningsOf(words))
	require.Len(t, questions, 1)

	q := questions[0]
	require.Len(t, q.Options, 4)
	assert.Contains(t, q.Options, q.Correct)
	for _, p := range placeholders {
		assert.Contains(t, q.Options, p)
	}
}

func TestBuildDeduplicatesMeanings(t *testing.T) {
	e := newTestEngine()
	words := []models.Word{{Word: "accept", Meaning: "agree to receive"}}
	meanings := []string{
		"agree to receive",
		"in a foreign country", "in a foreign country",
		"an even distribution", "an even distribution",
	}

	q := e.Build(words, meanings)[0]
	seen := make(map[string]bool)
	for _, opt := range q.Options {
		assert.False(t, seen[opt], "duplicate option %q", opt)
		seen[opt] = true
	}
}

func TestSessionScoring(t *testing.T) {
	e := newTestEngine()
	words := manyWords(3)
	s := e.NewSession(words, meaningsOf(words))
	require.Equal(t, 3, s.Total())
	require.False(t, s.Finished())

	// Correct answer scores one and advances.
	q, ok := s.Current()
	require.True(t, ok)
	assert.True(t, s.Answer(optionIndex(q)))
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 1, s.Index)

	// Wrong answer advances without scoring.
	q, ok = s.Current()
	require.True(t, ok)
	wrong := 0
	if q.Options[wrong] == q.Correct {
		wrong = 1
	}
	assert.False(t, s.Answer(wrong))
	assert.Equal(t, 1, s.Score)

	// Out-of-range answer counts as incorrect but still consumes the question.
	assert.False(t, s.Answer(99))
	assert.Equal(t, 1, s.Score)
	assert.True(t, s.Finished())

	// Answering a finished session does nothing.
	assert.False(t, s.Answer(0))
	assert.Equal(t, 1, s.Score)
	_, ok = s.Current()
	assert.False(t, ok)
}

func optionIndex(q models.QuizQuestion) int {
	for i, opt := range q.Options {
		if opt == q.Correct {
			return i
		}
	}
	return -1
}
