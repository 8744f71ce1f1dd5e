package session

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/example/lexibot/pkg/models"
)

// Engine drives one word through its three fixed stages: recognition,
// syllable assembly, letter spelling. All operations mutate the ProgressState
// in memory only; the controller is responsible for flushing.
type Engine struct {
	rnd *rand.Rand
}

// NewEngine creates a stage engine. The random source is injected so tests
// can pin the tile permutations.
func NewEngine(rnd *rand.Rand) *Engine {
	return &Engine{rnd: rnd}
}

// CleanWord returns the word with internal spaces removed. Puzzle answers are
// always compared against this form.
func CleanWord(word string) string {
	return strings.ReplaceAll(word, " ", "")
}

// ChunkWord partitions a word into syllable-like tiles: chunks of 3 letters
// while more than 5 remain, otherwise 2, with a final remainder of up to 3
// letters taken whole. A word containing a space is split into its sub-words
// instead.
func ChunkWord(word string) []string {
	if strings.Contains(word, " ") {
		return strings.Fields(word)
	}
	var chunks []string
	rest := []rune(word)
	for len(rest) > 0 {
		if len(rest) <= 3 {
			chunks = append(chunks, string(rest))
			break
		}
		cut := 2
		if len(rest) > 5 {
			cut = 3
		}
		chunks = append(chunks, string(rest[:cut]))
		rest = rest[cut:]
	}
	return chunks
}

// Letters splits the cleaned word into single-character tiles, case preserved.
func Letters(word string) []string {
	runes := []rune(CleanWord(word))
	letters := make([]string, len(runes))
	for i, r := range runes {
		letters[i] = string(r)
	}
	return letters
}

func (e *Engine) shuffled(tiles []string) []string {
	out := make([]string, len(tiles))
	copy(out, tiles)
	e.rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// BeginSyllable leaves recognition: generates the chunk tiles for the word,
// shuffles them into the pool and enters the syllable stage.
func (e *Engine) BeginSyllable(ps *models.ProgressState, word string) {
	ps.Stage2Pool = e.shuffled(ChunkWord(word))
	ps.Stage2Ans = []string{}
	ps.Stage = models.StageSyllable
}

// PickSyllable moves one tile from the pool to the end of the answer.
// Returns false if the index is out of range.
func (e *Engine) PickSyllable(ps *models.ProgressState, i int) bool {
	if i < 0 || i >= len(ps.Stage2Pool) {
		return false
	}
	ps.Stage2Ans = append(ps.Stage2Ans, ps.Stage2Pool[i])
	ps.Stage2Pool = append(ps.Stage2Pool[:i], ps.Stage2Pool[i+1:]...)
	return true
}

// RestartSyllable moves every answer tile back to the pool.
func (e *Engine) RestartSyllable(ps *models.ProgressState) {
	ps.Stage2Pool = append(ps.Stage2Pool, ps.Stage2Ans...)
	ps.Stage2Ans = []string{}
}

// ConfirmSyllable checks the assembled chunks against the word. A match
// (case-sensitive, spaces ignored) enters the spelling stage with fresh
// letter tiles; a mismatch leaves the puzzle untouched for a retry.
func (e *Engine) ConfirmSyllable(ps *models.ProgressState, word string) bool {
	if strings.Join(ps.Stage2Ans, "") != CleanWord(word) {
		return false
	}
	e.BeginSpelling(ps, word)
	return true
}

// BeginSpelling generates shuffled single-letter tiles and enters the
// spelling stage.
func (e *Engine) BeginSpelling(ps *models.ProgressState, word string) {
	ps.Stage3Pool = e.shuffled(Letters(word))
	ps.Stage3Ans = []string{}
	ps.Stage = models.StageSpelling
}

// PickLetter moves one letter tile from the pool to the end of the answer.
func (e *Engine) PickLetter(ps *models.ProgressState, i int) bool {
	if i < 0 || i >= len(ps.Stage3Pool) {
		return false
	}
	ps.Stage3Ans = append(ps.Stage3Ans, ps.Stage3Pool[i])
	ps.Stage3Pool = append(ps.Stage3Pool[:i], ps.Stage3Pool[i+1:]...)
	return true
}

// Backspace moves the last answer letter back to the front of the pool.
func (e *Engine) Backspace(ps *models.ProgressState) bool {
	if len(ps.Stage3Ans) == 0 {
		return false
	}
	last := ps.Stage3Ans[len(ps.Stage3Ans)-1]
	ps.Stage3Ans = ps.Stage3Ans[:len(ps.Stage3Ans)-1]
	ps.Stage3Pool = append([]string{last}, ps.Stage3Pool...)
	return true
}

// ClearSpelling moves every answer letter back to the pool.
func (e *Engine) ClearSpelling(ps *models.ProgressState) {
	ps.Stage3Pool = append(ps.Stage3Pool, ps.Stage3Ans...)
	ps.Stage3Ans = []string{}
}

// SubmitSpelling checks the spelled answer against the word, ignoring case
// and spaces. A match completes the word: the index advances and the next
// word starts at recognition. A mismatch enrolls the word in the notebook and
// leaves position and stage unchanged so the learner can correct and resubmit.
func (e *Engine) SubmitSpelling(ps *models.ProgressState, word string) bool {
	if !strings.EqualFold(strings.Join(ps.Stage3Ans, ""), CleanWord(word)) {
		ps.AddToNotebook(word)
		return false
	}
	ps.WordIndex++
	ps.Stage = models.StageRecognition
	ps.ClearPuzzles()
	return true
}

// EnsureTiles repairs malformed puzzle state: if the pool and answer no
// longer partition the word's tile set (possible after a dataset swap), a
// fresh shuffled tile set silently replaces them. Returns true if the tiles
// were regenerated.
func (e *Engine) EnsureTiles(ps *models.ProgressState, word string) bool {
	switch ps.Stage {
	case models.StageSyllable:
		if tilesMatchWord(ps.Stage2Pool, ps.Stage2Ans, word) {
			return false
		}
		ps.Stage2Pool = e.shuffled(ChunkWord(word))
		ps.Stage2Ans = []string{}
		return true
	case models.StageSpelling:
		if tilesMatchWord(ps.Stage3Pool, ps.Stage3Ans, word) {
			return false
		}
		ps.Stage3Pool = e.shuffled(Letters(word))
		ps.Stage3Ans = []string{}
		return true
	}
	return false
}

// tilesMatchWord reports whether pool and answer together hold exactly the
// characters of the cleaned word.
func tilesMatchWord(pool, ans []string, word string) bool {
	have := []rune(strings.Join(pool, "") + strings.Join(ans, ""))
	want := []rune(CleanWord(word))
	if len(have) != len(want) {
		return false
	}
	sort.Slice(have, func(i, j int) bool { return have[i] < have[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := range have {
		if have[i] != want[i] {
			return false
		}
	}
	return true
}
