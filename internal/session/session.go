package session

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/example/lexibot/internal/quiz"
	"github.com/example/lexibot/pkg/models"
)

// ErrNoActiveWord is returned when a stage operation is requested but the
// active list is empty or already exhausted.
var ErrNoActiveWord = errors.New("no active word")

// WordStore is the read-only, day-partitioned dataset the session selects
// its active word list from.
type WordStore interface {
	GetAll() ([]models.Word, error)
	GetByDay(day int) ([]models.Word, error)
	GetByWords(words []string) ([]models.Word, error)
	Days() ([]int, error)
	DistinctMeanings() ([]string, error)
}

// ProgressStore persists the learner state. Save is called after every
// state-changing action.
type ProgressStore interface {
	Load(chatID int64) (*models.ProgressState, error)
	Save(ps *models.ProgressState) error
}

// Controller resolves the active word list for the current mode and
// sequences the stage engine and quiz engine over it, flushing progress
// after every mutation.
type Controller struct {
	words    WordStore
	progress ProgressStore
	engine   *Engine
	quizzes  *quiz.Engine
}

// NewController creates a session controller. The random source feeds both
// tile shuffling and quiz generation.
func NewController(words WordStore, progress ProgressStore, rnd *rand.Rand) *Controller {
	return &Controller{
		words:    words,
		progress: progress,
		engine:   NewEngine(rnd),
		quizzes:  quiz.NewEngine(rnd),
	}
}

// Load returns the persisted state for a chat, falling back to defaults.
func (c *Controller) Load(chatID int64) (*models.ProgressState, error) {
	return c.progress.Load(chatID)
}

// ActiveWords resolves the word list the session is working through:
// the current day's words in DaySequence, every enrolled record in
// NotebookReview. An empty result is a terminal display state, not an error.
func (c *Controller) ActiveWords(ps *models.ProgressState) ([]models.Word, error) {
	if ps.Mode == models.NotebookReview {
		return c.words.GetByWords(ps.Notebook)
	}
	return c.words.GetByDay(ps.CurrentDay)
}

// CurrentWord returns the word at the session position, or ok=false when the
// active list is exhausted (word index equals list length) or empty.
func (c *Controller) CurrentWord(ps *models.ProgressState) (models.Word, bool, error) {
	active, err := c.ActiveWords(ps)
	if err != nil {
		return models.Word{}, false, err
	}
	if ps.WordIndex >= len(active) {
		return models.Word{}, false, nil
	}
	return active[ps.WordIndex], true, nil
}

// SwitchMode changes between day sequence and notebook review. Position and
// stage reset; notebook and completed days are untouched.
func (c *Controller) SwitchMode(ps *models.ProgressState, mode models.Mode) error {
	ps.Mode = mode
	ps.ResetPosition()
	return c.progress.Save(ps)
}

// SelectDay jumps day-sequence mode to the given day and rewinds.
func (c *Controller) SelectDay(ps *models.ProgressState, day int) error {
	if day < 1 {
		return fmt.Errorf("invalid day %d", day)
	}
	ps.Mode = models.DaySequence
	ps.CurrentDay = day
	ps.ResetPosition()
	return c.progress.Save(ps)
}

// ToggleNotebook flips notebook membership for a word and flushes.
func (c *Controller) ToggleNotebook(ps *models.ProgressState, word string) error {
	ps.ToggleNotebook(word)
	return c.progress.Save(ps)
}

// Advance leaves the recognition stage for the current word: chunk tiles are
// generated and the syllable puzzle begins.
func (c *Controller) Advance(ps *models.ProgressState) error {
	word, ok, err := c.currentWordString(ps)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveWord
	}
	c.engine.BeginSyllable(ps, word)
	return c.progress.Save(ps)
}

// PickSyllable moves a syllable tile into the answer and flushes.
func (c *Controller) PickSyllable(ps *models.ProgressState, i int) error {
	if !c.engine.PickSyllable(ps, i) {
		return nil
	}
	return c.progress.Save(ps)
}

// RestartSyllable returns all placed tiles to the pool and flushes.
func (c *Controller) RestartSyllable(ps *models.ProgressState) error {
	c.engine.RestartSyllable(ps)
	return c.progress.Save(ps)
}

// ConfirmSyllable grades the assembled chunks. On success the spelling stage
// begins; on mismatch the puzzle is left as-is for a retry.
func (c *Controller) ConfirmSyllable(ps *models.ProgressState) (bool, error) {
	word, ok, err := c.currentWordString(ps)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNoActiveWord
	}
	correct := c.engine.ConfirmSyllable(ps, word)
	if err := c.progress.Save(ps); err != nil {
		return correct, err
	}
	return correct, nil
}

// PickLetter moves a letter tile into the answer and flushes.
func (c *Controller) PickLetter(ps *models.ProgressState, i int) error {
	if !c.engine.PickLetter(ps, i) {
		return nil
	}
	return c.progress.Save(ps)
}

// Backspace returns the last placed letter to the pool and flushes.
func (c *Controller) Backspace(ps *models.ProgressState) error {
	if !c.engine.Backspace(ps) {
		return nil
	}
	return c.progress.Save(ps)
}

// ClearSpelling returns all placed letters to the pool and flushes.
func (c *Controller) ClearSpelling(ps *models.ProgressState) error {
	c.engine.ClearSpelling(ps)
	return c.progress.Save(ps)
}

// SubmitSpelling grades the spelled word. Success advances to the next word;
// failure enrolls the word in the notebook and keeps the position so the
// learner can fix the answer and resubmit.
func (c *Controller) SubmitSpelling(ps *models.ProgressState) (bool, error) {
	word, ok, err := c.currentWordString(ps)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNoActiveWord
	}
	correct := c.engine.SubmitSpelling(ps, word)
	if err := c.progress.Save(ps); err != nil {
		return correct, err
	}
	return correct, nil
}

// EnsureTiles repairs puzzle state that no longer matches the current word
// (possible after a dataset swap) and flushes if anything was regenerated.
func (c *Controller) EnsureTiles(ps *models.ProgressState) error {
	word, ok, err := c.currentWordString(ps)
	if err != nil || !ok {
		return err
	}
	if !c.engine.EnsureTiles(ps, word) {
		return nil
	}
	return c.progress.Save(ps)
}

// StartQuiz builds a fresh quiz over the exhausted active list.
func (c *Controller) StartQuiz(ps *models.ProgressState) (*quiz.Session, error) {
	active, err := c.ActiveWords(ps)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveWord
	}
	meanings, err := c.words.DistinctMeanings()
	if err != nil {
		return nil, err
	}
	return c.quizzes.NewSession(active, meanings), nil
}

// AnswerQuiz grades one quiz answer. A miss enrolls the question's word in
// the notebook; either way the question is consumed and progress flushed.
func (c *Controller) AnswerQuiz(ps *models.ProgressState, s *quiz.Session, option int) (bool, error) {
	q, ok := s.Current()
	if !ok {
		return false, nil
	}
	correct := s.Answer(option)
	if !correct {
		ps.AddToNotebook(q.Word)
	}
	if err := c.progress.Save(ps); err != nil {
		return correct, err
	}
	return correct, nil
}

// FinishDay acknowledges a completed day quiz: the day is recorded as
// complete and the session moves to the next day at the first word.
func (c *Controller) FinishDay(ps *models.ProgressState) error {
	ps.MarkDayCompleted(ps.CurrentDay)
	ps.CurrentDay++
	ps.ResetPosition()
	return c.progress.Save(ps)
}

// RestartNotebook rewinds a notebook-review pass to its first word without
// touching the notebook or completed days.
func (c *Controller) RestartNotebook(ps *models.ProgressState) error {
	ps.ResetPosition()
	return c.progress.Save(ps)
}

// Days returns the days that have data, for the day picker.
func (c *Controller) Days() ([]int, error) {
	return c.words.Days()
}

func (c *Controller) currentWordString(ps *models.ProgressState) (string, bool, error) {
	w, ok, err := c.CurrentWord(ps)
	if err != nil || !ok {
		return "", ok, err
	}
	return w.Word, true, nil
}
