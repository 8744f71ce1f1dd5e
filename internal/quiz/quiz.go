package quiz

import (
	"math/rand"

	"github.com/example/lexibot/pkg/models"
)

// placeholder distractors used when the dataset holds fewer than 3 other
// distinct meanings; options must always be 4 distinct strings.
var placeholders = []string{"(no answer)", "(not this one)", "(none of the above)"}

// Engine generates and grades the multiple-choice listening quiz that closes
// a day or a notebook pass.
type Engine struct {
	rnd *rand.Rand
}

// NewEngine creates a quiz engine with an injectable random source.
func NewEngine(rnd *rand.Rand) *Engine {
	return &Engine{rnd: rnd}
}

// Build creates one question per word of the finished active list. Each
// question gets 3 distractors drawn without replacement from the distinct
// meanings of the whole dataset (the correct one excluded), padded with
// placeholders when the dataset is too small. Option order and question
// order are both shuffled.
func (e *Engine) Build(words []models.Word, meanings []string) []models.QuizQuestion {
	distinct := dedupe(meanings)

	questions := make([]models.QuizQuestion, 0, len(words))
	for _, w := range words {
		candidates := make([]string, 0, len(distinct))
		for _, m := range distinct {
			if m != w.Meaning {
				candidates = append(candidates, m)
			}
		}
		e.rnd.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if len(candidates) > 3 {
			candidates = candidates[:3]
		}
		for _, p := range placeholders {
			if len(candidates) >= 3 {
				break
			}
			if p != w.Meaning && !contains(candidates, p) {
				candidates = append(candidates, p)
			}
		}

		options := append(candidates, w.Meaning)
		e.rnd.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})

		questions = append(questions, models.QuizQuestion{
			Word:    w.Word,
			Correct: w.Meaning,
			Options: options,
		})
	}

	e.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions
}

// NewSession builds the questions for the given word list and wraps them in
// a fresh session.
func (e *Engine) NewSession(words []models.Word, meanings []string) *Session {
	return &Session{Questions: e.Build(words, meanings)}
}

// Session is one quiz run. It lives in memory only: an interrupted quiz
// restarts from empty.
type Session struct {
	Questions []models.QuizQuestion
	Index     int
	Score     int
}

// Current returns the active question, or false when the quiz is finished.
func (s *Session) Current() (models.QuizQuestion, bool) {
	if s.Index >= len(s.Questions) {
		return models.QuizQuestion{}, false
	}
	return s.Questions[s.Index], true
}

// Answer grades the active question against the chosen option and advances.
// Each question is answered exactly once; a correct pick scores 1. An
// out-of-range option counts as incorrect.
func (s *Session) Answer(option int) bool {
	q, ok := s.Current()
	if !ok {
		return false
	}
	s.Index++
	if option < 0 || option >= len(q.Options) {
		return false
	}
	if q.Options[option] != q.Correct {
		return false
	}
	s.Score++
	return true
}

// Finished reports whether every question has been answered.
func (s *Session) Finished() bool {
	return s.Index >= len(s.Questions)
}

// Total returns the number of questions in the run.
func (s *Session) Total() int {
	return len(s.Questions)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
