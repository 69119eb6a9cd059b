package bot

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"food-builder/builder"
	"food-builder/lang"
	"food-builder/models"
	"food-builder/services"
	"food-builder/session"
)

const (
	keyLang   = "lang"
	inboxSize = 32
)

// chat is the state of one Telegram chat: its durable session, the
// transient reorder hand-off and the active builder.
type chat struct {
	id    int64
	inbox chan tgbotapi.Update
	store session.Store
	// shown mirrors lang for readers that cannot take mu.
	shown atomic.Value

	// mu guards everything below. Handlers hold it for the whole update;
	// background fetches take it before touching the screen.
	mu        sync.Mutex
	ready     bool
	sess      *session.Session
	transient *session.Transient
	throttle  *services.LoginThrottle
	lang      string

	builder  *builder.Builder
	screenID int // message showing the builder
	form     *formState
	reorders map[int64]models.ReorderPayload // by order id, from the last /orders
}

func newChat(id int64, store session.Store, auth session.Authenticator, log *zap.Logger) *chat {
	prefixed := session.Prefixed(store, "chat:"+strconv.FormatInt(id, 10)+":")
	return &chat{
		id:        id,
		inbox:     make(chan tgbotapi.Update, inboxSize),
		store:     prefixed,
		sess:      session.New(prefixed, auth, log.With(zap.Int64("chat_id", id))),
		transient: session.NewTransient(),
		throttle:  services.NewLoginThrottle(prefixed),
	}
}

// init restores the persisted session and language on first use.
func (c *chat) init(ctx context.Context, defLang string) {
	if c.ready {
		return
	}
	c.ready = true
	c.sess.Restore(ctx)
	c.lang = defLang
	if l, ok, err := c.store.Get(ctx, keyLang); err == nil && ok && lang.Supported(l) {
		c.lang = l
	}
	c.shown.Store(c.lang)
}

func (c *chat) t(key string, args ...interface{}) string {
	return lang.T(c.lang, key, args...)
}

// shownLang is the chat's language without taking mu, def until known.
func (c *chat) shownLang(def string) string {
	if l, ok := c.shown.Load().(string); ok {
		return l
	}
	return def
}

func (c *chat) setLang(ctx context.Context, l string) error {
	c.lang = l
	c.shown.Store(l)
	return c.store.Set(ctx, keyLang, l)
}
