package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/example/lexibot/pkg/models"
)

// ProgressRepository persists the learner's ProgressState. The whole state is
// written as one serialized row per chat; every write overwrites the previous
// state in full.
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// Load returns the persisted state for a chat. A missing row or unparsable
// state yields the default state (day 1, first word, recognition stage,
// empty sets) — never an error the learner has to see.
func (r *ProgressRepository) Load(chatID int64) (*models.ProgressState, error) {
	var raw string
	query := DB.Rebind("SELECT state FROM progress WHERE chat_id = ?")
	err := DB.Get(&raw, query, chatID)
	if err == sql.ErrNoRows {
		return models.DefaultProgress(chatID), nil
	}
	if err != nil {
		return models.DefaultProgress(chatID), fmt.Errorf("failed to load progress: %v", err)
	}
	return models.DeserializeProgress(chatID, []byte(raw)), nil
}

// Save flushes the full state to storage (write-through, no batching).
func (r *ProgressRepository) Save(ps *models.ProgressState) error {
	data, err := ps.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize progress: %v", err)
	}

	query := DB.Rebind(`
		INSERT INTO progress (chat_id, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := DB.Exec(query, ps.ChatID, string(data)); err != nil {
		return fmt.Errorf("failed to save progress: %v", err)
	}
	return nil
}

// ResetAll drops every learner's progress. Called when the dataset is
// replaced: old indices and puzzle tiles are meaningless against new words.
func (r *ProgressRepository) ResetAll() error {
	if _, err := DB.Exec("DELETE FROM progress"); err != nil {
		return fmt.Errorf("failed to reset progress: %v", err)
	}
	return nil
}

// Chats returns every chat that has stored progress. Used by the reminder
// scheduler.
func (r *ProgressRepository) Chats() ([]int64, error) {
	var chats []int64
	err := DB.Select(&chats, "SELECT chat_id FROM progress ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %v", err)
	}
	return chats, nil
}

// MustLoad is Load with the advisory error logged instead of returned.
func (r *ProgressRepository) MustLoad(chatID int64) *models.ProgressState {
	ps, err := r.Load(chatID)
	if err != nil {
		log.Printf("Progress load fell back to defaults for chat %d: %v", chatID, err)
	}
	return ps
}
