package models

// QuizQuestion is a single multiple-choice listening question. Questions are
// generated per quiz run and never persisted: an interrupted quiz restarts
// from empty.
type QuizQuestion struct {
	Word    string   `json:"word"`
	Correct string   `json:"correct"`
	Options []string `json:"options"` // 4 distinct options, correct one included
}
