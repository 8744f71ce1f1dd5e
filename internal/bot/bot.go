package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexibot/internal/database"
	"github.com/example/lexibot/internal/quiz"
	"github.com/example/lexibot/internal/scheduler"
	"github.com/example/lexibot/internal/session"
	"github.com/example/lexibot/internal/tts"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application. It is a thin rendering layer:
// every button press is routed to the session controller, which mutates and
// flushes the learner state, and the resulting state is drawn back as the
// next message.
type Bot struct {
	api              *tgbotapi.BotAPI
	controller       *session.Controller
	progressRepo     *database.ProgressRepository
	wordRepo         *database.WordRepository
	speech           *tts.Client
	scheduler        *scheduler.Scheduler
	schedulerEnabled bool
	config           *BotConfig

	// per-chat ephemeral state; quizzes intentionally do not survive restarts
	quizzes          map[int64]*quiz.Session
	slowSpeech       map[int64]bool
	awaitingUpload   map[int64]bool
	adminUserIDs     map[int64]bool
}

// New creates a new bot instance
func New() (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %v", err)
	}

	wordRepo := database.NewWordRepository()
	progressRepo := database.NewProgressRepository()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	b := &Bot{
		api:              api,
		controller:       session.NewController(wordRepo, progressRepo, rnd),
		progressRepo:     progressRepo,
		wordRepo:         wordRepo,
		speech:           tts.New(),
		schedulerEnabled: os.Getenv("ENABLE_SCHEDULER") != "false",
		config:           DefaultConfig(),
		quizzes:          make(map[int64]*quiz.Session),
		slowSpeech:       make(map[int64]bool),
		awaitingUpload:   make(map[int64]bool),
		adminUserIDs:     make(map[int64]bool),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			b.adminUserIDs[id] = true
		}
	}

	b.scheduler = scheduler.New(b)

	return b, nil
}

// Start begins processing updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.schedulerEnabled {
		b.scheduler.Start()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop shuts the bot down gracefully
func (b *Bot) Stop(ctx context.Context) error {
	if b.schedulerEnabled {
		b.scheduler.Stop()
	}
	b.api.StopReceivingUpdates()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.HandleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("Error handling callback %q: %v", update.CallbackQuery.Data, err)
		}
	case update.Message != nil && update.Message.Document != nil:
		if err := b.HandleDocument(ctx, update.Message); err != nil {
			log.Printf("Error handling document: %v", err)
		}
	case update.Message != nil && update.Message.IsCommand():
		if err := b.HandleCommand(ctx, update.Message); err != nil {
			log.Printf("Error handling command /%s: %v", update.Message.Command(), err)
		}
	}
}

// SendStudyReminder implements scheduler.Notifier
func (b *Bot) SendStudyReminder(chatID int64, day int) error {
	text := fmt.Sprintf("📚 Day %d is waiting for you. A few minutes now beats an hour later!", day)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "▶️ Continue studying", CallbackData: "study"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

// sendWordAudio synthesizes and sends the word as a voice message. Synthesis
// failures are swallowed: the learning flow continues without sound.
func (b *Bot) sendWordAudio(chatID int64, word string) {
	audio, err := b.speech.Synthesize(word, b.slowSpeech[chatID])
	if err != nil {
		log.Printf("TTS failed for %q: %v", word, err)
		return
	}
	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "word.mp3", Bytes: audio})
	if _, err := b.api.Send(voice); err != nil {
		log.Printf("Failed to send voice message: %v", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	// With no configured admins the bot is a single-user install and anyone
	// in the chat may manage the dataset.
	if len(b.adminUserIDs) == 0 {
		return true
	}
	return b.adminUserIDs[userID]
}
