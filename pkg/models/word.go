package models

import "time"

// Word represents a single entry of the day-partitioned word list
type Word struct {
	ID           int       `json:"id" db:"id"`
	Day          int       `json:"day" db:"day"`
	Word         string    `json:"word" db:"word"`
	PartOfSpeech string    `json:"pos" db:"pos"` // e.g. "(n.)", may be empty
	IPA          string    `json:"ipa" db:"ipa"` // transcription without surrounding slashes
	Meaning      string    `json:"meaning" db:"meaning"`
	Example      string    `json:"example" db:"example"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
