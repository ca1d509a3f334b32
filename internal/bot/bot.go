package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/classifier"
	"github.com/xaenox/second-brain/internal/content"
	"github.com/xaenox/second-brain/internal/metrics"
	"github.com/xaenox/second-brain/internal/models"
	"github.com/xaenox/second-brain/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// sender is the part of tgbotapi.BotAPI used to reply.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Config struct {
	NotifyTTL     time.Duration
	RatePerMinute int
	Burst         int
}

type Bot struct {
	api       *tgbotapi.BotAPI
	out       sender
	client    *api.Client
	store     storage.TokenStore
	suggester classifier.Suggester
	metrics   metrics.Recorder
	logger    *zap.Logger

	notifyTTL time.Duration
	rateLimit rate.Limit
	burst     int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

func New(token string, cfg Config, client *api.Client, store storage.TokenStore, suggester classifier.Suggester, rec metrics.Recorder, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(botAPI, cfg, client, store, suggester, rec, logger)
	b.api = botAPI
	return b, nil
}

func newBot(out sender, cfg Config, client *api.Client, store storage.TokenStore, suggester classifier.Suggester, rec metrics.Recorder, logger *zap.Logger) *Bot {
	if rec == nil {
		rec = metrics.Nop{}
	}
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Bot{
		out:       out,
		client:    client,
		store:     store,
		suggester: suggester,
		metrics:   rec,
		logger:    logger,
		notifyTTL: cfg.NotifyTTL,
		rateLimit: limit,
		burst:     burst,
		now:       time.Now,
		sessions:  make(map[int64]*chatSession),
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.Close()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// Close tears down every chat session.
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.sessions {
		s.close()
		delete(b.sessions, id)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	s, err := b.session(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to open session",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		b.sendErrorMessage(chatID, "Sorry, something went wrong. Please try again.")
		return
	}

	if !s.limiter.Allow() {
		b.sendErrorMessage(chatID, "You're sending commands too fast. Please wait a moment.")
		return
	}

	if !message.IsCommand() {
		b.sendMessage(chatID, "Unknown command. Use /help to see available commands.")
		return
	}
	b.handleCommand(ctx, s, message)
}

func (b *Bot) handleCommand(ctx context.Context, s *chatSession, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "signup":
		b.handleSignUp(ctx, s, chatID, args)
	case "login":
		b.handleLogin(ctx, s, chatID, args)
	case "logout":
		b.handleLogout(ctx, s, chatID)
	case "list":
		b.handleList(ctx, s, chatID, strings.TrimSpace(message.CommandArguments()))
	case "filter":
		b.handleFilter(ctx, s, chatID, args)
	case "refresh":
		b.handleRefresh(ctx, s, chatID)
	case "add":
		b.handleAdd(ctx, s, chatID, args)
	case "delete":
		b.handleDelete(ctx, s, chatID, args)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	welcome := `Welcome to Second Brain! 🧠
Store and organize your important links in one place.

Create an account with /signup <email> <password>, then sign in with /login.
Use /help to see all available commands.`

	b.sendMessage(chatID, welcome)
}

func (b *Bot) handleHelp(chatID int64) {
	help := `Available commands:
/signup <email> <password> - Create an account
/login <email> <password> - Sign in
/logout - Sign out
/list [search] - Show your links
/filter <all|recent|youtube|twitter|article|document> - Narrow the list
/refresh - Reload your links
/add <type> <link> <title> [#tag ...] - Save a link
/delete <id> - Delete a link`

	b.sendMessage(chatID, help)
}

func (b *Bot) handleSignUp(ctx context.Context, s *chatSession, chatID int64, args []string) {
	if len(args) != 2 {
		b.sendMessage(chatID, "Usage: /signup <email> <password>")
		return
	}
	err := s.auth.SignUp(ctx, models.Credentials{Username: args[0], Password: args[1]})
	if b.reportValidation(chatID, err) {
		return
	}
	if err != nil {
		s.notes.Add(api.Message(err), models.SeverityError)
		return
	}
	s.notes.Add("Account created. Use /login to sign in.", models.SeveritySuccess)
}

func (b *Bot) handleLogin(ctx context.Context, s *chatSession, chatID int64, args []string) {
	if len(args) != 2 {
		b.sendMessage(chatID, "Usage: /login <email> <password>")
		return
	}
	err := s.auth.SignIn(ctx, models.Credentials{Username: args[0], Password: args[1]})
	if b.reportValidation(chatID, err) {
		return
	}
	if err != nil {
		s.notes.Add("Sign in failed. Please try again.", models.SeverityError)
		return
	}
	s.notes.Add("Signed in. Use /list to see your links.", models.SeveritySuccess)
	s.ensureLoaded(ctx)
}

func (b *Bot) handleLogout(ctx context.Context, s *chatSession, chatID int64) {
	if err := s.auth.SignOut(ctx); err != nil {
		b.logger.Error("Failed to sign out", zap.Error(err), zap.Int64("chat_id", chatID))
		s.notes.Add("Sign out failed. Please try again.", models.SeverityError)
		return
	}
	s.notes.Add("Signed out.", models.SeverityInfo)
}

// requireAuth gates protected views.
func (b *Bot) requireAuth(s *chatSession, chatID int64) bool {
	if s.auth.Authenticated() {
		return true
	}
	b.sendMessage(chatID, "Please /login first.")
	return false
}

func (b *Bot) handleList(ctx context.Context, s *chatSession, chatID int64, query string) {
	if !b.requireAuth(s, chatID) {
		return
	}
	s.ensureLoaded(ctx)

	f := s.currentFilter()
	f.Search = query
	b.sendList(s, chatID, f)
}

func (b *Bot) handleFilter(ctx context.Context, s *chatSession, chatID int64, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: /filter <all|recent|youtube|twitter|article|document>")
		return
	}
	if !b.requireAuth(s, chatID) {
		return
	}
	s.ensureLoaded(ctx)
	b.sendList(s, chatID, s.selectFilter(args[0]))
}

func (b *Bot) handleRefresh(ctx context.Context, s *chatSession, chatID int64) {
	if !b.requireAuth(s, chatID) {
		return
	}
	s.content.Fetch(ctx)
	b.sendList(s, chatID, s.currentFilter())
}

func (b *Bot) handleAdd(ctx context.Context, s *chatSession, chatID int64, args []string) {
	if len(args) < 3 {
		b.sendMessage(chatID, "Usage: /add <type> <link> <title> [#tag ...]")
		return
	}
	if !b.requireAuth(s, chatID) {
		return
	}

	draft := models.ContentDraft{Type: args[0], Link: args[1], Tags: []string{}}
	var title []string
	for _, word := range args[2:] {
		if tag := strings.TrimPrefix(word, "#"); tag != word {
			draft.Tags = append(draft.Tags, content.ParseTags(tag)...)
			continue
		}
		title = append(title, word)
	}
	draft.Title = strings.Join(title, " ")

	err := s.content.Create(ctx, draft)
	b.reportValidation(chatID, err)
}

func (b *Bot) handleDelete(ctx context.Context, s *chatSession, chatID int64, args []string) {
	if len(args) < 1 || len(args) > 2 {
		b.sendMessage(chatID, "Usage: /delete <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(chatID, "Usage: /delete <id>")
		return
	}
	if !b.requireAuth(s, chatID) {
		return
	}

	confirmed := len(args) == 2 && strings.EqualFold(args[1], "yes")
	if !s.confirm(id, confirmed) {
		b.sendMessage(chatID, fmt.Sprintf("Delete item %d? Send /delete %d yes to confirm.", id, id))
		return
	}

	if err := s.content.Delete(ctx, id); errors.Is(err, content.ErrDeleteInFlight) {
		b.sendMessage(chatID, fmt.Sprintf("Item %d is already being deleted.", id))
	}
}

// reportValidation sends per-field messages and reports whether err was a
// validation failure.
func (b *Bot) reportValidation(chatID int64, err error) bool {
	var ve api.ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	lines := make([]string, 0, len(ve))
	for _, field := range []string{"form", "username", "password", "title", "link", "type"} {
		if msg, ok := ve[field]; ok {
			lines = append(lines, "• "+msg)
		}
	}
	b.sendErrorMessage(chatID, "Please fix the following:\n"+strings.Join(lines, "\n"))
	return true
}

func (b *Bot) sendList(s *chatSession, chatID int64, f content.Filter) {
	if msg := s.content.LastError(); msg != "" {
		b.sendErrorMessage(chatID, msg)
		return
	}

	items := s.content.Visible(f)
	if len(items) == 0 {
		if f.Search != "" {
			b.sendMessage(chatID, "No content found matching your search.")
		} else {
			b.sendMessage(chatID, "No content yet. Start by adding your first link with /add!")
		}
		return
	}

	now := b.now()
	cards := make([]string, len(items))
	for i, item := range items {
		cards[i] = formatCard(item, now) + "\n"
	}
	header := fmt.Sprintf("*Your Second Brain* \\(%s\\)\n\n", escapeMarkdown(f.Active()))

	for _, text := range chunkCards(header, cards, maxMessageLength) {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "MarkdownV2"
		msg.DisableWebPagePreview = true
		if _, err := b.out.Send(msg); err != nil {
			b.logger.Error("Failed to send content list",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
			return
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendMessage(chatID, "⚠️ "+text)
}
