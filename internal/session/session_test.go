package session

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexibot/internal/quiz"
	"github.com/example/lexibot/pkg/models"
)

// memWords is an in-memory WordStore over a fixed dataset.
type memWords struct {
	words []models.Word
}

func (m *memWords) GetAll() ([]models.Word, error) {
	return m.words, nil
}

func (m *memWords) GetByDay(day int) ([]models.Word, error) {
	var out []models.Word
	for _, w := range m.words {
		if w.Day == day {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWords) GetByWords(words []string) ([]models.Word, error) {
	wanted := make(map[string]bool, len(words))
	for _, w := range words {
		wanted[w] = true
	}
	var out []models.Word
	for _, w := range m.words {
		if wanted[w.Word] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWords) Days() ([]int, error) {
	seen := make(map[int]bool)
	var days []int
	for _, w := range m.words {
		if !seen[w.Day] {
			seen[w.Day] = true
			days = append(days, w.Day)
		}
	}
	sort.Ints(days)
	return days, nil
}

func (m *memWords) DistinctMeanings() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, w := range m.words {
		if !seen[w.Meaning] {
			seen[w.Meaning] = true
			out = append(out, w.Meaning)
		}
	}
	return out, nil
}

// memProgress stores serialized state per chat, like the real repository.
type memProgress struct {
	blobs map[int64][]byte
	saves int
}

func newMemProgress() *memProgress {
	return &memProgress{blobs: make(map[int64][]byte)}
}

func (m *memProgress) Load(chatID int64) (*models.ProgressState, error) {
	blob, ok := m.blobs[chatID]
	if !ok {
		return models.DefaultProgress(chatID), nil
	}
	return models.DeserializeProgress(chatID, blob), nil
}

func (m *memProgress) Save(ps *models.ProgressState) error {
	blob, err := ps.Serialize()
	if err != nil {
		return err
	}
	m.blobs[ps.ChatID] = blob
	m.saves++
	return nil
}

func testDataset() *memWords {
	return &memWords{words: []models.Word{
		{ID: 1, Day: 1, Word: "accept", Meaning: "agree to receive"},
		{ID: 2, Day: 1, Word: "abroad", Meaning: "in a foreign country"},
		{ID: 3, Day: 2, Word: "balance", Meaning: "an even distribution of weight"},
		{ID: 4, Day: 2, Word: "basic", Meaning: "forming an essential foundation"},
	}}
}

func newTestController(words *memWords, progress *memProgress) *Controller {
	return NewController(words, progress, rand.New(rand.NewSource(7)))
}

// completeWord drives the current word through both puzzles.
func completeWord(t *testing.T, c *Controller, ps *models.ProgressState) {
	t.Helper()
	word, ok, err := c.CurrentWord(ps)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Advance(ps))
	require.Equal(t, models.StageSyllable, ps.Stage)
	for _, chunk := range ChunkWord(word.Word) {
		i := indexOf(ps.Stage2Pool, chunk)
		require.GreaterOrEqual(t, i, 0)
		require.NoError(t, c.PickSyllable(ps, i))
	}
	correct, err := c.ConfirmSyllable(ps)
	require.NoError(t, err)
	require.True(t, correct)
	require.Equal(t, models.StageSpelling, ps.Stage)

	for _, letter := range Letters(word.Word) {
		i := indexOf(ps.Stage3Pool, letter)
		require.GreaterOrEqual(t, i, 0)
		require.NoError(t, c.PickLetter(ps, i))
	}
	correct, err = c.SubmitSpelling(ps)
	require.NoError(t, err)
	require.True(t, correct)
}

func TestDayFlowEndsInQuizAndNextDay(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(42)
	require.NoError(t, err)

	completeWord(t, c, ps)
	assert.Equal(t, 1, ps.WordIndex)
	completeWord(t, c, ps)
	assert.Equal(t, 2, ps.WordIndex)

	// The day's list is exhausted now.
	_, ok, err := c.CurrentWord(ps)
	require.NoError(t, err)
	assert.False(t, ok)

	s, err := c.StartQuiz(ps)
	require.NoError(t, err)
	require.Equal(t, 2, s.Total())

	for {
		q, active := s.Current()
		if !active {
			break
		}
		correct, err := c.AnswerQuiz(ps, s, indexOf(q.Options, q.Correct))
		require.NoError(t, err)
		assert.True(t, correct)
	}
	assert.Equal(t, 2, s.Score)
	assert.Empty(t, ps.Notebook)

	require.NoError(t, c.FinishDay(ps))
	assert.Equal(t, 2, ps.CurrentDay)
	assert.Equal(t, 0, ps.WordIndex)
	assert.Equal(t, models.StageRecognition, ps.Stage)
	assert.Equal(t, []int{1}, ps.CompletedDays)
}

func TestProgressSurvivesReload(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(42)
	require.NoError(t, err)
	require.NoError(t, c.Advance(ps))
	require.NoError(t, c.PickSyllable(ps, 0))

	// A fresh load resumes mid-puzzle at the last flushed micro-step.
	reloaded, err := c.Load(42)
	require.NoError(t, err)
	assert.Equal(t, models.StageSyllable, reloaded.Stage)
	assert.Equal(t, ps.Stage2Pool, reloaded.Stage2Pool)
	assert.Equal(t, ps.Stage2Ans, reloaded.Stage2Ans)
	assert.Len(t, reloaded.Stage2Ans, 1)
}

func TestWrongSpellingKeepsPositionAndEnrolls(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)
	require.NoError(t, c.Advance(ps))
	for len(ps.Stage2Pool) > 0 {
		require.NoError(t, c.PickSyllable(ps, 0))
	}
	// Whatever the order, force the spelling stage with the real word.
	_, err = c.ConfirmSyllable(ps)
	require.NoError(t, err)
	if ps.Stage != models.StageSpelling {
		require.NoError(t, c.RestartSyllable(ps))
		for _, chunk := range ChunkWord("accept") {
			require.NoError(t, c.PickSyllable(ps, indexOf(ps.Stage2Pool, chunk)))
		}
		correct, err := c.ConfirmSyllable(ps)
		require.NoError(t, err)
		require.True(t, correct)
	}

	// Submit a wrong (empty) answer.
	correct, err := c.SubmitSpelling(ps)
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, 0, ps.WordIndex)
	assert.Equal(t, models.StageSpelling, ps.Stage)
	assert.Equal(t, []string{"accept"}, ps.Notebook)
}

func TestSwitchModeResetsPosition(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)
	ps.AddToNotebook("abroad")
	ps.WordIndex = 1
	ps.Stage = models.StageSpelling

	require.NoError(t, c.SwitchMode(ps, models.NotebookReview))
	assert.Equal(t, models.NotebookReview, ps.Mode)
	assert.Equal(t, 0, ps.WordIndex)
	assert.Equal(t, models.StageRecognition, ps.Stage)

	active, err := c.ActiveWords(ps)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "abroad", active[0].Word)
}

func TestNotebookReviewUsesDatasetOrder(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)
	// Enrolled out of dataset order.
	ps.AddToNotebook("basic")
	ps.AddToNotebook("accept")

	require.NoError(t, c.SwitchMode(ps, models.NotebookReview))
	active, err := c.ActiveWords(ps)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "accept", active[0].Word)
	assert.Equal(t, "basic", active[1].Word)
}

func TestEmptyNotebookIsTerminal(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)
	require.NoError(t, c.SwitchMode(ps, models.NotebookReview))

	active, err := c.ActiveWords(ps)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.Equal(t, ErrNoActiveWord, c.Advance(ps))
	_, err = c.StartQuiz(ps)
	assert.Equal(t, ErrNoActiveWord, err)
}

func TestSelectDayRejectsInvalid(t *testing.T) {
	c := newTestController(testDataset(), newMemProgress())
	ps := models.DefaultProgress(1)
	assert.Error(t, c.SelectDay(ps, 0))
	require.NoError(t, c.SelectDay(ps, 2))
	assert.Equal(t, 2, ps.CurrentDay)
	assert.Equal(t, models.DaySequence, ps.Mode)
}

func TestQuizMissEnrollsWord(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)
	ps.WordIndex = 2 // day list exhausted

	s, err := c.StartQuiz(ps)
	require.NoError(t, err)

	q, ok := s.Current()
	require.True(t, ok)
	wrong := 0
	if q.Options[wrong] == q.Correct {
		wrong = 1
	}
	correct, err := c.AnswerQuiz(ps, s, wrong)
	require.NoError(t, err)
	assert.False(t, correct)
	assert.True(t, ps.InNotebook(q.Word))
}

func TestQuizAnswerOnFinishedSessionIsNoop(t *testing.T) {
	c := newTestController(testDataset(), newMemProgress())
	ps := models.DefaultProgress(1)
	s := &quiz.Session{}

	correct, err := c.AnswerQuiz(ps, s, 0)
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Empty(t, ps.Notebook)
}

func TestEveryMutationIsFlushed(t *testing.T) {
	words := testDataset()
	progress := newMemProgress()
	c := newTestController(words, progress)

	ps, err := c.Load(1)
	require.NoError(t, err)

	require.NoError(t, c.Advance(ps))
	require.NoError(t, c.PickSyllable(ps, 0))
	require.NoError(t, c.RestartSyllable(ps))
	require.NoError(t, c.ToggleNotebook(ps, "accept"))

	assert.Equal(t, 4, progress.saves)
}

func TestRestartNotebookRewinds(t *testing.T) {
	c := newTestController(testDataset(), newMemProgress())
	ps := models.DefaultProgress(1)
	ps.Mode = models.NotebookReview
	ps.AddToNotebook("accept")
	ps.WordIndex = 1

	require.NoError(t, c.RestartNotebook(ps))
	assert.Equal(t, 0, ps.WordIndex)
	assert.Equal(t, []string{"accept"}, ps.Notebook)
}
