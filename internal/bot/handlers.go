package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexibot/internal/ingest"
	"github.com/example/lexibot/internal/quiz"
	"github.com/example/lexibot/internal/session"
	"github.com/example/lexibot/pkg/models"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(message)
	case "help":
		err = b.handleHelp(message)
	case "study":
		err = b.renderState(message.Chat.ID)
	case "days":
		err = b.handleDays(message.Chat.ID)
	case "notebook":
		err = b.handleNotebookMode(message.Chat.ID)
	case "stats":
		err = b.handleStats(message.Chat.ID)
	case "slow":
		err = b.handleSlowToggle(message.Chat.ID)
	case "import":
		err = b.handleImportCommand(message)
	default:
		err = b.handleUnknownCommand(message)
	}
	return err
}

func (b *Bot) handleStart(message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	// Touch the progress row so the reminder scheduler knows this chat.
	ps := b.progressRepo.MustLoad(message.Chat.ID)
	if err := b.progressRepo.Save(ps); err != nil {
		log.Printf("Failed to store initial progress: %v", err)
	}

	text := "👋 Welcome to lexibot!\n\n" +
		"I walk you through a daily word list in three steps per word:\n" +
		"1️⃣ See the word with its meaning and example\n" +
		"2️⃣ Rebuild it from syllable tiles\n" +
		"3️⃣ Spell it letter by letter\n\n" +
		"Each day ends with a listening quiz. Words you miss land in your " +
		"notebook 📕 for extra review."

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Commands:\n\n" +
		"/study - Continue where you left off\n" +
		"/days - Pick a day to work on\n" +
		"/notebook - Review your starred and missed words\n" +
		"/stats - Your progress so far\n" +
		"/slow - Toggle slow pronunciation\n" +
		"/import - Upload a new word list (.xlsx or .csv)\n\n" +
		"During the puzzles, tap tiles to build the word. " +
		"A wrong spelling puts the word into your notebook automatically."

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: "main_menu"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Try /help.")
	return b.sendMessage(msg)
}

func (b *Bot) mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "🌲 Study today's words", CallbackData: "study"}},
		{{Text: "📅 Pick a day", CallbackData: "days"}, {Text: "📕 Notebook", CallbackData: "mode:notebook"}},
		{{Text: "📊 Stats", CallbackData: "stats"}},
	}
}

func (b *Bot) handleDays(chatID int64) error {
	days, err := b.controller.Days()
	if err != nil {
		return fmt.Errorf("failed to get days: %v", err)
	}
	if len(days) == 0 {
		msg := tgbotapi.NewMessage(chatID, "No word list loaded yet. Use /import to upload one.")
		return b.sendMessage(msg)
	}

	ps := b.progressRepo.MustLoad(chatID)

	var rows [][]MenuButton
	var row []MenuButton
	for _, day := range days {
		label := fmt.Sprintf("%d", day)
		if ps.DayCompleted(day) {
			label = fmt.Sprintf("✅ %d", day)
		} else if day == ps.CurrentDay {
			label = fmt.Sprintf("▶️ %d", day)
		}
		row = append(row, MenuButton{Text: label, CallbackData: fmt.Sprintf("day:%d", day)})
		if len(row) == b.config.DaysPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []MenuButton{{Text: "⬅️ Back to menu", CallbackData: "main_menu"}})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📅 Pick a day (currently Day %d):", ps.CurrentDay))
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

func (b *Bot) handleNotebookMode(chatID int64) error {
	ps := b.progressRepo.MustLoad(chatID)
	delete(b.quizzes, chatID)
	if err := b.controller.SwitchMode(ps, models.NotebookReview); err != nil {
		return err
	}
	return b.renderProgress(chatID, ps)
}

func (b *Bot) handleStats(chatID int64) error {
	ps := b.progressRepo.MustLoad(chatID)

	total, err := b.wordRepo.Count()
	if err != nil {
		return err
	}
	days, err := b.wordRepo.Days()
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📊 Your progress\n\n"+
		"Words in the list: %d across %d days\n"+
		"Current day: %d\n"+
		"Days completed: %d\n"+
		"Notebook words: %d",
		total, len(days), ps.CurrentDay, len(ps.CompletedDays), len(ps.Notebook))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: "main_menu"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleSlowToggle(chatID int64) error {
	b.slowSpeech[chatID] = !b.slowSpeech[chatID]
	text := "🐢 Slow pronunciation is now ON."
	if !b.slowSpeech[chatID] {
		text = "🐇 Slow pronunciation is now OFF."
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) handleImportCommand(message *tgbotapi.Message) error {
	if message.From == nil || !b.isAdmin(message.From.ID) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Only an admin can replace the word list."))
	}
	b.awaitingUpload[message.Chat.ID] = true
	text := "📤 Send me the word list as a document (.xlsx or .csv).\n\n" +
		"Columns: day | word | ipa | meaning | example. \"Day N\" rows between " +
		"blocks also work.\n\n" +
		"⚠️ Importing replaces the current list and resets all progress."
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, text))
}

// HandleDocument handles an uploaded word-list file when an import was
// requested beforehand.
func (b *Bot) HandleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if !b.awaitingUpload[chatID] {
		return nil
	}
	delete(b.awaitingUpload, chatID)

	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Unsupported file type. Please send .xlsx or .csv."))
	}

	localPath, err := b.downloadDocument(doc, ext)
	if err != nil {
		log.Printf("Failed to download document: %v", err)
		return b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Could not download the file, please try again."))
	}
	defer os.Remove(localPath)

	config := ingest.DefaultImportConfig()
	config.FilePath = localPath

	result, err := ingest.ImportWords(config)
	if err != nil {
		log.Printf("Import failed: %v", err)
		return b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Import failed: %v", err)))
	}

	// All in-memory session leftovers are stale now.
	b.quizzes = make(map[int64]*quiz.Session)

	text := fmt.Sprintf("✅ Imported %d words across %d days (%d rows skipped).\n"+
		"All progress has been reset — everyone starts at Day 1.",
		result.Imported, result.Days, result.Skipped)
	if len(result.Errors) > 0 {
		text += fmt.Sprintf("\n\n%d rows had problems, first: %s", len(result.Errors), result.Errors[0])
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) downloadDocument(doc *tgbotapi.Document, ext string) (string, error) {
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file URL: %v", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch file: %v", err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "wordlist-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store file: %v", err)
	}
	return tmp.Name(), nil
}

// HandleCallback routes a button press to the matching state transition and
// re-renders.
func (b *Bot) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	// Acknowledge the press so the client stops the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}

	action, arg, _ := strings.Cut(cb.Data, ":")
	ps := b.progressRepo.MustLoad(chatID)

	switch action {
	case "main_menu":
		msg := tgbotapi.NewMessage(chatID, "What next?")
		msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
		return b.sendMessage(msg)
	case "study":
		return b.renderProgress(chatID, ps)
	case "days":
		return b.handleDays(chatID)
	case "stats":
		return b.handleStats(chatID)
	case "mode":
		mode := models.DaySequence
		if arg == "notebook" {
			mode = models.NotebookReview
		}
		delete(b.quizzes, chatID)
		if err := b.controller.SwitchMode(ps, mode); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "day":
		day, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad day callback %q", cb.Data)
		}
		delete(b.quizzes, chatID)
		if err := b.controller.SelectDay(ps, day); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "star":
		word, ok, err := b.controller.CurrentWord(ps)
		if err != nil || !ok {
			return err
		}
		if err := b.controller.ToggleNotebook(ps, word.Word); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "say":
		b.sayCurrent(chatID, ps)
		return nil
	case "adv":
		if err := b.controller.Advance(ps); err != nil {
			if err == session.ErrNoActiveWord {
				return b.renderProgress(chatID, ps)
			}
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s2":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad tile callback %q", cb.Data)
		}
		if err := b.controller.PickSyllable(ps, i); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s2_restart":
		if err := b.controller.RestartSyllable(ps); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s2_confirm":
		correct, err := b.controller.ConfirmSyllable(ps)
		if err != nil && err != session.ErrNoActiveWord {
			return err
		}
		if !correct {
			if err := b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Not quite — try again or restart.")); err != nil {
				return err
			}
		}
		return b.renderProgress(chatID, ps)
	case "s3":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad tile callback %q", cb.Data)
		}
		if err := b.controller.PickLetter(ps, i); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s3_back":
		if err := b.controller.Backspace(ps); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s3_clear":
		if err := b.controller.ClearSpelling(ps); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "s3_submit":
		word, _, werr := b.controller.CurrentWord(ps)
		correct, err := b.controller.SubmitSpelling(ps)
		if err != nil && err != session.ErrNoActiveWord {
			return err
		}
		if !correct && werr == nil {
			text := fmt.Sprintf("❌ Wrong spelling — the word is %q. It's in your notebook now.", word.Word)
			if err := b.sendMessage(tgbotapi.NewMessage(chatID, text)); err != nil {
				return err
			}
		}
		return b.renderProgress(chatID, ps)
	case "quiz_start":
		s, err := b.controller.StartQuiz(ps)
		if err != nil {
			if err == session.ErrNoActiveWord {
				return b.renderProgress(chatID, ps)
			}
			return err
		}
		b.quizzes[chatID] = s
		return b.renderQuiz(chatID, ps)
	case "qz":
		option, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad quiz callback %q", cb.Data)
		}
		return b.handleQuizAnswer(chatID, ps, option)
	case "quiz_ack":
		delete(b.quizzes, chatID)
		if err := b.controller.FinishDay(ps); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	case "nb_restart":
		delete(b.quizzes, chatID)
		if err := b.controller.RestartNotebook(ps); err != nil {
			return err
		}
		return b.renderProgress(chatID, ps)
	}

	return fmt.Errorf("unknown callback %q", cb.Data)
}

// sayCurrent plays the word the learner is looking at: the active quiz word
// during a quiz, the session word otherwise.
func (b *Bot) sayCurrent(chatID int64, ps *models.ProgressState) {
	if s, ok := b.quizzes[chatID]; ok {
		if q, ok := s.Current(); ok {
			b.sendWordAudio(chatID, q.Word)
			return
		}
	}
	word, ok, err := b.controller.CurrentWord(ps)
	if err != nil || !ok {
		return
	}
	b.sendWordAudio(chatID, word.Word)
}

func (b *Bot) handleQuizAnswer(chatID int64, ps *models.ProgressState, option int) error {
	s, ok := b.quizzes[chatID]
	if !ok {
		return b.renderProgress(chatID, ps)
	}
	q, active := s.Current()
	if !active {
		return b.renderQuiz(chatID, ps)
	}

	correct, err := b.controller.AnswerQuiz(ps, s, option)
	if err != nil {
		return err
	}

	feedback := "🎉 Correct!"
	if !correct {
		feedback = fmt.Sprintf("❌ Wrong — %s means %q. Added to your notebook.", q.Word, q.Correct)
	}
	if err := b.sendMessage(tgbotapi.NewMessage(chatID, feedback)); err != nil {
		return err
	}
	return b.renderQuiz(chatID, ps)
}

// renderState draws the current session state for a chat from scratch.
func (b *Bot) renderState(chatID int64) error {
	ps := b.progressRepo.MustLoad(chatID)
	return b.renderProgress(chatID, ps)
}

func (b *Bot) renderProgress(chatID int64, ps *models.ProgressState) error {
	if s, ok := b.quizzes[chatID]; ok && !s.Finished() {
		return b.renderQuiz(chatID, ps)
	}

	active, err := b.controller.ActiveWords(ps)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return b.renderEmpty(chatID, ps)
	}
	if ps.WordIndex >= len(active) {
		return b.renderExhausted(chatID, ps, len(active))
	}

	// Repair tiles that no longer match the word (dataset may have changed).
	if err := b.controller.EnsureTiles(ps); err != nil {
		return err
	}

	word := active[ps.WordIndex]
	switch ps.Stage {
	case models.StageSyllable:
		return b.renderSyllable(chatID, ps, word, len(active))
	case models.StageSpelling:
		return b.renderSpelling(chatID, ps, word, len(active))
	default:
		return b.renderRecognition(chatID, ps, word, len(active))
	}
}

func (b *Bot) renderEmpty(chatID int64, ps *models.ProgressState) error {
	var msg tgbotapi.MessageConfig
	if ps.Mode == models.NotebookReview {
		msg = tgbotapi.NewMessage(chatID, "📕 Your notebook is empty — nothing to review yet.")
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "🌲 Back to day mode", CallbackData: "mode:day"}},
		})
	} else {
		msg = tgbotapi.NewMessage(chatID, fmt.Sprintf("No words for Day %d. Pick another day or import a list.", ps.CurrentDay))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "📅 Pick a day", CallbackData: "days"}},
			{{Text: "⬅️ Back to menu", CallbackData: "main_menu"}},
		})
	}
	return b.sendMessage(msg)
}

func (b *Bot) renderExhausted(chatID int64, ps *models.ProgressState, total int) error {
	if ps.Mode == models.NotebookReview {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🎉 Notebook pass finished — all %d words done!", total))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "⚔️ Take the quiz", CallbackData: "quiz_start"}},
			{{Text: "🔁 Go through them again", CallbackData: "nb_restart"}},
			{{Text: "🌲 Back to day mode", CallbackData: "mode:day"}},
		})
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🎉 All %d words of Day %d done! Time for the listening quiz.", total, ps.CurrentDay))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⚔️ Start the quiz", CallbackData: "quiz_start"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) headerLine(ps *models.ProgressState, total int) string {
	if ps.Mode == models.NotebookReview {
		return fmt.Sprintf("📕 Notebook review · word %d/%d", ps.WordIndex+1, total)
	}
	return fmt.Sprintf("🌲 Day %d · word %d/%d", ps.CurrentDay, ps.WordIndex+1, total)
}

func (b *Bot) renderRecognition(chatID int64, ps *models.ProgressState, word models.Word, total int) error {
	var text strings.Builder
	text.WriteString(b.headerLine(ps, total))
	text.WriteString("\n\n")
	text.WriteString(word.Word)
	if word.PartOfSpeech != "" {
		text.WriteString(" " + word.PartOfSpeech)
	}
	if word.IPA != "" {
		text.WriteString(fmt.Sprintf("  /%s/", word.IPA))
	}
	text.WriteString("\n\n" + word.Meaning)
	if word.Example != "" {
		text.WriteString("\n\n📝 " + word.Example)
	}

	star := "❤️ Star"
	if ps.InNotebook(word.Word) {
		star = "💔 Unstar"
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: star, CallbackData: "star"}, {Text: "🔊 Listen", CallbackData: "say"}},
		{{Text: "➡️ Next step", CallbackData: "adv"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) renderSyllable(chatID int64, ps *models.ProgressState, word models.Word, total int) error {
	text := fmt.Sprintf("%s\n\n🧩 Stage 2 — rebuild the word from its pieces.\nHint: %s\n\nYour answer: %s",
		b.headerLine(ps, total), word.Meaning, renderAnswer(ps.Stage2Ans))

	rows := tileRows(ps.Stage2Pool, "s2", b.config.SyllableTilesPerRow)
	rows = append(rows, []MenuButton{
		{Text: "🔊 Listen", CallbackData: "say"},
		{Text: "↺ Restart", CallbackData: "s2_restart"},
		{Text: "✅ Confirm", CallbackData: "s2_confirm"},
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

func (b *Bot) renderSpelling(chatID int64, ps *models.ProgressState, word models.Word, total int) error {
	text := fmt.Sprintf("%s\n\n✍️ Stage 3 — spell it letter by letter.\nHint: %s\n\nYour answer: %s",
		b.headerLine(ps, total), word.Meaning, renderAnswer(ps.Stage3Ans))

	rows := tileRows(ps.Stage3Pool, "s3", b.config.LetterTilesPerRow)
	rows = append(rows, []MenuButton{
		{Text: "⌫ Back", CallbackData: "s3_back"},
		{Text: "↺ Clear", CallbackData: "s3_clear"},
		{Text: "✅ Submit", CallbackData: "s3_submit"},
	})
	rows = append(rows, []MenuButton{{Text: "🔊 Listen", CallbackData: "say"}})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

func (b *Bot) renderQuiz(chatID int64, ps *models.ProgressState) error {
	s, ok := b.quizzes[chatID]
	if !ok {
		return b.renderProgress(chatID, ps)
	}

	q, active := s.Current()
	if !active {
		return b.renderQuizDone(chatID, ps, s.Score, s.Total())
	}

	text := fmt.Sprintf("⚔️ Listening quiz — question %d/%d · score %d\n\n🔊 Listen and pick the meaning:",
		s.Index+1, s.Total(), s.Score)

	rows := [][]MenuButton{{{Text: "🔊 Play", CallbackData: "say"}}}
	for i, opt := range q.Options {
		rows = append(rows, []MenuButton{{Text: opt, CallbackData: fmt.Sprintf("qz:%d", i)}})
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

func (b *Bot) renderQuizDone(chatID int64, ps *models.ProgressState, score, total int) error {
	text := fmt.Sprintf("🏆 Quiz finished! Score: %d / %d", score, total)
	var rows [][]MenuButton
	if ps.Mode == models.DaySequence {
		rows = [][]MenuButton{
			{{Text: "🚀 On to the next day", CallbackData: "quiz_ack"}},
		}
	} else {
		rows = [][]MenuButton{
			{{Text: "🔁 Review again", CallbackData: "nb_restart"}},
			{{Text: "🌲 Back to day mode", CallbackData: "mode:day"}},
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(rows)
	return b.sendMessage(msg)
}

func renderAnswer(tiles []string) string {
	if len(tiles) == 0 {
		return "—"
	}
	return strings.Join(tiles, "")
}

func tileRows(pool []string, prefix string, perRow int) [][]MenuButton {
	var rows [][]MenuButton
	var row []MenuButton
	for i, tile := range pool {
		row = append(row, MenuButton{Text: tile, CallbackData: fmt.Sprintf("%s:%d", prefix, i)})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}
