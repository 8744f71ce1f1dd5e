package models

import "encoding/json"

// Stage is one of the three fixed sub-exercises a word passes through.
type Stage int

const (
	// StageRecognition shows the word with phonetics, meaning and example
	StageRecognition Stage = 1
	// StageSyllable is the syllable-assembly puzzle
	StageSyllable Stage = 2
	// StageSpelling is the letter-spelling puzzle
	StageSpelling Stage = 3
)

// Mode selects which word list a session works through.
type Mode int

const (
	// DaySequence works through the current day's words in dataset order
	DaySequence Mode = iota
	// NotebookReview works through every record whose word is in the notebook
	NotebookReview
)

// ProgressState is the single persisted learner aggregate. It is mutated on
// every user-visible transition and flushed to storage right after, so an
// interrupted session resumes at the last completed micro-step.
//
// Mode is deliberately not part of the persisted form: a restart always
// resumes in DaySequence.
type ProgressState struct {
	ChatID        int64    `json:"-"`
	Mode          Mode     `json:"-"`
	CurrentDay    int      `json:"current_day"`
	WordIndex     int      `json:"word_index"`
	Stage         Stage    `json:"stage"`
	Notebook      []string `json:"notebook"`
	CompletedDays []int    `json:"completed_days"`
	Stage2Pool    []string `json:"stage2_pool"`
	Stage2Ans     []string `json:"stage2_ans"`
	Stage3Pool    []string `json:"stage3_pool"`
	Stage3Ans     []string `json:"stage3_ans"`
}

// DefaultProgress returns the state a learner starts from: day 1, first word,
// recognition stage, empty notebook and no completed days.
func DefaultProgress(chatID int64) *ProgressState {
	return &ProgressState{
		ChatID:        chatID,
		Mode:          DaySequence,
		CurrentDay:    1,
		WordIndex:     0,
		Stage:         StageRecognition,
		Notebook:      []string{},
		CompletedDays: []int{},
		Stage2Pool:    []string{},
		Stage2Ans:     []string{},
		Stage3Pool:    []string{},
		Stage3Ans:     []string{},
	}
}

// Serialize encodes the persisted form of the state.
func (p *ProgressState) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

// DeserializeProgress decodes a persisted state. Unparsable or out-of-range
// content falls back to the defaults instead of failing: losing a save file
// must never be fatal to the learner.
func DeserializeProgress(chatID int64, data []byte) *ProgressState {
	p := DefaultProgress(chatID)
	if err := json.Unmarshal(data, p); err != nil {
		return DefaultProgress(chatID)
	}
	p.ChatID = chatID
	p.Mode = DaySequence
	if p.CurrentDay < 1 {
		p.CurrentDay = 1
	}
	if p.WordIndex < 0 {
		p.WordIndex = 0
	}
	if p.Stage < StageRecognition || p.Stage > StageSpelling {
		p.Stage = StageRecognition
	}
	if p.Notebook == nil {
		p.Notebook = []string{}
	}
	if p.CompletedDays == nil {
		p.CompletedDays = []int{}
	}
	if p.Stage2Pool == nil {
		p.Stage2Pool = []string{}
	}
	if p.Stage2Ans == nil {
		p.Stage2Ans = []string{}
	}
	if p.Stage3Pool == nil {
		p.Stage3Pool = []string{}
	}
	if p.Stage3Ans == nil {
		p.Stage3Ans = []string{}
	}
	return p
}

// InNotebook reports whether the word is enrolled for extra review.
func (p *ProgressState) InNotebook(word string) bool {
	for _, w := range p.Notebook {
		if w == word {
			return true
		}
	}
	return false
}

// AddToNotebook enrolls a word for review. Returns false if it was already
// enrolled; adding is idempotent.
func (p *ProgressState) AddToNotebook(word string) bool {
	if p.InNotebook(word) {
		return false
	}
	p.Notebook = append(p.Notebook, word)
	return true
}

// RemoveFromNotebook un-stars a word. Returns false if it was not enrolled.
func (p *ProgressState) RemoveFromNotebook(word string) bool {
	for i, w := range p.Notebook {
		if w == word {
			p.Notebook = append(p.Notebook[:i], p.Notebook[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleNotebook flips notebook membership for a word.
func (p *ProgressState) ToggleNotebook(word string) {
	if !p.AddToNotebook(word) {
		p.RemoveFromNotebook(word)
	}
}

// DayCompleted reports whether both the word pass and the quiz pass of a day
// were finished and acknowledged.
func (p *ProgressState) DayCompleted(day int) bool {
	for _, d := range p.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// MarkDayCompleted records a finished day. Days are add-only.
func (p *ProgressState) MarkDayCompleted(day int) {
	if !p.DayCompleted(day) {
		p.CompletedDays = append(p.CompletedDays, day)
	}
}

// ResetPosition rewinds to the first word of the active list.
func (p *ProgressState) ResetPosition() {
	p.WordIndex = 0
	p.Stage = StageRecognition
	p.ClearPuzzles()
}

// ClearPuzzles drops any in-flight tile state for both puzzle stages.
func (p *ProgressState) ClearPuzzles() {
	p.Stage2Pool = []string{}
	p.Stage2Ans = []string{}
	p.Stage3Pool = []string{}
	p.Stage3Ans = []string{}
}
