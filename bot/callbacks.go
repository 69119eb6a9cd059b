package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// renderBuilder redraws the builder screen. Caller holds c.mu.
func (b *Bot) renderBuilder(c *chat) {
	if c.builder == nil {
		return
	}
	v, ok := c.builder.View()
	if !ok {
		c.screenID = b.edit(c.id, c.screenID, c.t("loading"), nil)
		return
	}
	kb := builderKeyboard(v, c.lang)
	c.screenID = b.edit(c.id, c.screenID, builderText(v, c.lang, c.builder.Restored()), &kb)
}

func (b *Bot) handleCallback(ctx context.Context, c *chat, cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	messageID := 0
	if cq.Message != nil {
		messageID = cq.Message.MessageID
	}

	if id, ok := parseID(data, cbCategory); ok {
		b.answer(cq, "")
		b.sendFoodTypes(ctx, c, id, messageID)
		return
	}
	if id, ok := parseID(data, cbFoodType); ok {
		b.answer(cq, "")
		b.openBuilder(ctx, c, id)
		return
	}
	if id, ok := parseID(data, cbReorder); ok {
		b.answer(cq, "")
		b.reorder(ctx, c, id)
		return
	}

	switch data {
	case cbCats:
		b.answer(cq, "")
		b.sendCategories(ctx, c)
		return
	case cbNoop:
		b.answer(cq, "")
		return
	}

	// The rest act on the builder shown in this message.
	bld := c.builder
	if bld == nil || messageID != c.screenID {
		b.answer(cq, c.t("builder_expired"))
		return
	}
	if !bld.Loaded() {
		b.answer(cq, c.t("loading"))
		return
	}

	changed := false
	if id, ok := parseID(data, cbToggle); ok {
		changed = bld.Toggle(id)
	} else if id, ok := parseID(data, cbUp); ok {
		changed = bld.MoveUp(id)
	} else if id, ok := parseID(data, cbDown); ok {
		changed = bld.MoveDown(id)
	} else if data == cbOrder {
		b.answer(cq, "")
		b.startForm(c)
		return
	} else {
		b.log.Debug("unknown callback", zap.String("data", data))
	}
	b.answer(cq, "")
	if changed {
		b.renderBuilder(c)
	}
}

// reorder hands the order's first item to a new builder through the chat's
// transient store.
func (b *Bot) reorder(ctx context.Context, c *chat, orderID int64) {
	p, ok := c.reorders[orderID]
	if !ok {
		b.sendKey(c, "builder_expired")
		return
	}
	if err := c.transient.PutReorder(p); err != nil {
		b.log.Warn("store reorder payload", zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	b.openBuilder(ctx, c, p.FoodTypeID)
}
