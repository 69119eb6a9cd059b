package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"food-builder/api"
	"food-builder/lang"
	"food-builder/models"
	"food-builder/session"
)

func (b *Bot) handleOrders(ctx context.Context, c *chat) {
	if !c.sess.IsAuthenticated() {
		b.sendKey(c, "login_required")
		return
	}
	orders, err := b.backend.Orders(ctx, c.sess.AuthHeader())
	if errors.Is(err, api.ErrUnauthorized) {
		// Expired or revoked token.
		c.sess.Logout(ctx)
		b.sendKey(c, "login_required")
		return
	}
	if err != nil {
		b.log.Warn("list orders", zap.Int64("chat_id", c.id), zap.Error(err))
		b.sendKey(c, errorKey(err))
		return
	}
	if len(orders) == 0 {
		b.sendKey(c, "orders_empty")
		return
	}
	c.reorders = reorderPayloads(orders)
	text := ordersText(orders, c.lang)
	if len(c.reorders) == 0 {
		b.send(c.id, text)
		return
	}
	b.sendWithInline(c.id, text, ordersKeyboard(orders, c.lang))
}

// forgetCredentials deletes a message that carried a password.
func (b *Bot) forgetCredentials(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Debug("delete credentials message", zap.Error(err))
	}
}

func (b *Bot) handleLogin(ctx context.Context, c *chat, msg *tgbotapi.Message, args []string) {
	if len(args) != 2 {
		b.sendKey(c, "login_usage")
		return
	}
	b.forgetCredentials(msg)

	if wait, err := c.throttle.WaitSeconds(ctx); err != nil {
		b.log.Warn("read login throttle", zap.Int64("chat_id", c.id), zap.Error(err))
	} else if wait > 0 {
		b.sendKey(c, "login_throttled", wait)
		return
	}

	err := c.sess.Login(ctx, args[0], args[1])
	switch {
	case err == nil:
		if err := c.throttle.RecordSuccess(ctx); err != nil {
			b.log.Warn("reset login throttle", zap.Int64("chat_id", c.id), zap.Error(err))
		}
		b.sendKey(c, "login_ok", c.sess.User().Username)
	case errors.Is(err, api.ErrNetwork):
		b.sendKey(c, "network_error")
	default:
		b.log.Info("login failed", zap.Int64("chat_id", c.id), zap.Error(err))
		if errors.Is(err, api.ErrInvalidCredentials) {
			if err := c.throttle.RecordFailed(ctx); err != nil {
				b.log.Warn("record login failure", zap.Int64("chat_id", c.id), zap.Error(err))
			}
		}
		b.sendKey(c, "login_failed")
	}
}

func (b *Bot) handleRegister(ctx context.Context, c *chat, msg *tgbotapi.Message, args []string) {
	if len(args) < 4 {
		b.sendKey(c, "register_usage")
		return
	}
	b.forgetCredentials(msg)

	p := models.Profile{
		Username:  args[0],
		Email:     args[1],
		Password:  args[2],
		Password2: args[3],
	}
	if len(args) > 4 {
		p.FirstName = args[4]
	}
	if len(args) > 5 {
		p.LastName = args[5]
	}

	err := c.sess.Register(ctx, p)
	var verr *api.ValidationError
	switch {
	case err == nil:
		b.sendKey(c, "login_ok", c.sess.User().Username)
	case errors.Is(err, session.ErrPasswordMismatch):
		b.sendKey(c, "password_mismatch")
	case errors.Is(err, api.ErrNetwork):
		b.sendKey(c, "network_error")
	case errors.As(err, &verr) && verr.First() != "":
		b.sendKey(c, "register_failed", verr.First())
	default:
		b.log.Info("register failed", zap.Int64("chat_id", c.id), zap.Error(err))
		b.sendKey(c, "register_failed", err.Error())
	}
}

func (b *Bot) handleLogout(ctx context.Context, c *chat) {
	c.sess.Logout(ctx)
	c.reorders = nil
	b.sendKey(c, "logout_ok")
}

func (b *Bot) handleWhoami(c *chat) {
	u := c.sess.User()
	if u == nil {
		b.sendKey(c, "whoami_guest")
		return
	}
	text := c.t("whoami_user", u.Username)
	if name := u.FullName(); name != "" {
		text += "\n" + name
	}
	if u.Email != "" {
		text += "\n" + u.Email
	}
	if exp, ok := c.sess.TokenExpiry(); ok {
		text += "\n" + c.t("whoami_expiry", exp.Format("2006-01-02 15:04 MST"))
	}
	b.send(c.id, text)
}

func (b *Bot) handleLanguage(ctx context.Context, c *chat, args []string) {
	if len(args) != 1 || !lang.Supported(args[0]) {
		b.sendKey(c, "language_usage")
		return
	}
	if err := c.setLang(ctx, args[0]); err != nil {
		b.log.Warn("persist language", zap.Int64("chat_id", c.id), zap.Error(err))
	}
	b.sendKey(c, "language_changed")
	if c.builder != nil && c.form == nil {
		c.screenID = 0
		b.renderBuilder(c)
	}
}
