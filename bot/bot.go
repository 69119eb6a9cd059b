package bot

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"food-builder/builder"
	"food-builder/lang"
	"food-builder/logger"
	"food-builder/models"
	"food-builder/notify"
	"food-builder/session"
)

// Backend is the part of the REST client the bot talks to.
type Backend interface {
	session.Authenticator
	builder.Catalog
	builder.OrderSubmitter
	Categories(ctx context.Context) ([]models.Category, error)
	FoodTypes(ctx context.Context, categoryID int64) ([]models.FoodType, error)
	Orders(ctx context.Context, auth http.Header) ([]models.Order, error)
}

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Options struct {
	Backend   Backend
	Store     session.Store
	Publisher notify.Publisher
	Log       *zap.Logger
	// DefaultLang is used until a chat picks a language.
	DefaultLang string
	// IdleTimeout is how long a chat stays in memory without updates.
	IdleTimeout time.Duration
}

const defaultIdleTimeout = 30 * time.Minute

type Bot struct {
	api     Sender
	backend Backend
	store   session.Store
	pub     notify.Publisher
	log     *zap.Logger
	defLang string
	idle    time.Duration

	// chatsMu guards chats and every send into a chat inbox.
	chats   map[int64]*chat
	chatsMu sync.Mutex

	// wg tracks chat workers and background food type fetches.
	wg sync.WaitGroup
}

func New(api Sender, opts Options) *Bot {
	if opts.Publisher == nil {
		opts.Publisher = notify.Nop{}
	}
	if opts.Store == nil {
		opts.Store = session.NewMemoryStore()
	}
	if !lang.Supported(opts.DefaultLang) {
		opts.DefaultLang = lang.En
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	return &Bot{
		api:     api,
		backend: opts.Backend,
		store:   opts.Store,
		pub:     opts.Publisher,
		log:     logger.OrNop(opts.Log),
		defLang: opts.DefaultLang,
		idle:    opts.IdleTimeout,
		chats:   make(map[int64]*chat),
	}
}

// SetCommands registers the command menu shown by Telegram clients.
func (b *Bot) SetCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "menu", Description: "Browse the menu"},
		tgbotapi.BotCommand{Command: "orders", Description: "Order history"},
		tgbotapi.BotCommand{Command: "login", Description: "Sign in"},
		tgbotapi.BotCommand{Command: "register", Description: "Create an account"},
		tgbotapi.BotCommand{Command: "logout", Description: "Sign out"},
		tgbotapi.BotCommand{Command: "whoami", Description: "Current account"},
		tgbotapi.BotCommand{Command: "language", Description: "en or ar"},
	)
	_, err := b.api.Request(cfg)
	return err
}

// Run dispatches updates to per-chat workers until ctx is done or updates is
// closed, then waits for in-flight work to finish. A slow chat never holds up
// the others.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	defer b.closeChats()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if chatID, ok := updateChatID(u); ok {
				b.dispatch(ctx, chatID, u)
			}
		}
	}
}

// dispatch queues u for the chat's worker without waiting. When the worker is
// that far behind, u is dropped and the user is told to retry.
func (b *Bot) dispatch(ctx context.Context, chatID int64, u tgbotapi.Update) {
	b.chatsMu.Lock()
	c, created := b.chatLocked(chatID)
	if created {
		b.wg.Add(1)
		go b.serve(ctx, c)
	}
	select {
	case c.inbox <- u:
		b.chatsMu.Unlock()
		return
	default:
	}
	b.chatsMu.Unlock()

	b.log.Warn("chat busy, dropping update", zap.Int64("chat_id", chatID), zap.Int("update_id", u.UpdateID))
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.replyBusy(c, u)
	}()
}

func (b *Bot) replyBusy(c *chat, u tgbotapi.Update) {
	text := lang.T(c.shownLang(b.defLang), "busy")
	if u.CallbackQuery != nil {
		b.answer(u.CallbackQuery, text)
		return
	}
	b.send(c.id, text)
}

func updateChatID(u tgbotapi.Update) (int64, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID, true
	}
	return 0, false
}

// chatLocked returns the chat for id, creating it if needed. Caller holds
// chatsMu.
func (b *Bot) chatLocked(id int64) (*chat, bool) {
	if c, ok := b.chats[id]; ok {
		return c, false
	}
	c := newChat(id, b.store, b.backend, b.log)
	b.chats[id] = c
	return c, true
}

func (b *Bot) closeChats() {
	b.chatsMu.Lock()
	defer b.chatsMu.Unlock()
	for _, c := range b.chats {
		close(c.inbox)
	}
	b.chats = make(map[int64]*chat)
}

// serve handles one chat's updates in arrival order. After b.idle without
// updates the chat is evicted; the next update restores it from the store.
func (b *Bot) serve(ctx context.Context, c *chat) {
	defer b.wg.Done()
	idle := time.NewTimer(b.idle)
	defer idle.Stop()
	for {
		select {
		case u, ok := <-c.inbox:
			if !ok {
				return
			}
			b.handle(ctx, c, u)
			idle.Reset(b.idle)
		case <-idle.C:
			if b.evict(c) {
				return
			}
			idle.Reset(b.idle)
		}
	}
}

func (b *Bot) evict(c *chat) bool {
	b.chatsMu.Lock()
	defer b.chatsMu.Unlock()
	if len(c.inbox) > 0 || b.chats[c.id] != c {
		return false
	}
	delete(b.chats, c.id)
	b.log.Debug("evicted idle chat", zap.Int64("chat_id", c.id))
	return true
}

func (b *Bot) handle(ctx context.Context, c *chat, u tgbotapi.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.init(ctx, b.defLang)

	if u.CallbackQuery != nil {
		b.handleCallback(ctx, c, u.CallbackQuery)
		return
	}
	msg := u.Message
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	cmd, args := splitCommand(text)

	if c.form != nil {
		if b.handleFormInput(ctx, c, cmd, text) {
			return
		}
		// Any other command leaves the order form.
		c.form = nil
	}

	switch cmd {
	case "":
		if text != "" {
			b.sendKey(c, "unknown_command")
		}
	case "/start":
		b.handleStart(c)
	case "/menu":
		if len(args) > 0 && args[0] == "all" {
			b.handleMenuOverview(ctx, c)
		} else {
			b.sendCategories(ctx, c)
		}
	case "/orders":
		b.handleOrders(ctx, c)
	case "/login":
		b.handleLogin(ctx, c, msg, args)
	case "/register":
		b.handleRegister(ctx, c, msg, args)
	case "/logout":
		b.handleLogout(ctx, c)
	case "/whoami":
		b.handleWhoami(c)
	case "/language":
		b.handleLanguage(ctx, c, args)
	default:
		b.sendKey(c, "unknown_command")
	}
}

// splitCommand returns the command (lowercased, without a @botname suffix)
// and its arguments. Plain text yields an empty command.
func splitCommand(text string) (string, []string) {
	if !strings.HasPrefix(text, "/") {
		return "", nil
	}
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, fields[1:]
}

func (b *Bot) handleStart(c *chat) {
	if u := c.sess.User(); u != nil {
		name := u.FullName()
		if name == "" {
			name = u.Username
		}
		b.send(c.id, c.t("welcome_user", name))
		return
	}
	b.sendKey(c, "welcome")
}

func (b *Bot) send(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warn("send error", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent.MessageID
}

func (b *Bot) sendKey(c *chat, key string, args ...interface{}) {
	b.send(c.id, c.t(key, args...))
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warn("send error", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return sent.MessageID
}

// edit replaces a message in place, or sends a new one when messageID is 0.
// It returns the id of the message now showing text. A "not modified" answer
// is not an error.
func (b *Bot) edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) int {
	if messageID == 0 {
		if kb != nil {
			return b.sendWithInline(chatID, text, *kb)
		}
		return b.send(chatID, text)
	}
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb != nil {
		e.ReplyMarkup = kb
	}
	if _, err := b.api.Send(e); err != nil && !strings.Contains(err.Error(), "not modified") {
		b.log.Warn("edit error", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return messageID
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		b.log.Debug("answer callback", zap.Error(err))
	}
}
