package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexibot/pkg/models"
)

// WordRepository handles database operations for words
type WordRepository struct{}

// NewWordRepository creates a new repository instance
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetAll returns the whole dataset in dataset order
func (r *WordRepository) GetAll() ([]models.Word, error) {
	var words []models.Word
	err := DB.Select(&words, "SELECT * FROM words ORDER BY day, id")
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	return words, nil
}

// GetByDay returns the words of a single day in dataset order
func (r *WordRepository) GetByDay(day int) ([]models.Word, error) {
	var words []models.Word
	query := DB.Rebind("SELECT * FROM words WHERE day = ? ORDER BY id")
	err := DB.Select(&words, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get words for day %d: %v", day, err)
	}
	return words, nil
}

// GetByWords returns every record whose word is in the given set, in dataset
// order. A word appearing on several days yields one record per day.
func (r *WordRepository) GetByWords(wordSet []string) ([]models.Word, error) {
	if len(wordSet) == 0 {
		return []models.Word{}, nil
	}
	query, args, err := sqlx.In("SELECT * FROM words WHERE word IN (?) ORDER BY day, id", wordSet)
	if err != nil {
		return nil, fmt.Errorf("failed to build notebook query: %v", err)
	}
	var words []models.Word
	err = DB.Select(&words, DB.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get notebook words: %v", err)
	}
	return words, nil
}

// Days returns the days that have at least one word, ascending
func (r *WordRepository) Days() ([]int, error) {
	var days []int
	err := DB.Select(&days, "SELECT DISTINCT day FROM words ORDER BY day")
	if err != nil {
		return nil, fmt.Errorf("failed to get days: %v", err)
	}
	return days, nil
}

// DistinctMeanings returns all distinct meanings in the dataset. Used as the
// quiz distractor pool.
func (r *WordRepository) DistinctMeanings() ([]string, error) {
	var meanings []string
	err := DB.Select(&meanings, "SELECT meaning FROM words GROUP BY meaning ORDER BY MIN(id)")
	if err != nil {
		return nil, fmt.Errorf("failed to get meanings: %v", err)
	}
	return meanings, nil
}

// Count returns the total number of words in the dataset
func (r *WordRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM words")
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}

// ReplaceAll swaps the whole dataset for a new one in a single transaction.
// Insertion order defines the dataset order.
func (r *WordRepository) ReplaceAll(words []models.Word) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM words"); err != nil {
		return fmt.Errorf("failed to clear words: %v", err)
	}

	insert := tx.Rebind(`
		INSERT INTO words (day, word, pos, ipa, meaning, example)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for _, w := range words {
		if _, err := tx.Exec(insert, w.Day, w.Word, w.PartOfSpeech, w.IPA, w.Meaning, w.Example); err != nil {
			return fmt.Errorf("failed to insert word %q: %v", w.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit words: %v", err)
	}
	return nil
}
