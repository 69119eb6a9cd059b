package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"food-builder/api"
	"food-builder/builder"
)

// overviewConcurrency bounds the per-category fetches of /menu all.
const overviewConcurrency = 4

// errorKey maps an API error to the message shown to the user.
func errorKey(err error) string {
	switch {
	case errors.Is(err, api.ErrNetwork):
		return "network_error"
	case errors.Is(err, api.ErrNotFound):
		return "not_found"
	default:
		return "load_failed"
	}
}

func (b *Bot) sendCategories(ctx context.Context, c *chat) {
	cats, err := b.backend.Categories(ctx)
	if err != nil {
		b.log.Warn("list categories", zap.Int64("chat_id", c.id), zap.Error(err))
		b.sendKey(c, errorKey(err))
		return
	}
	if len(cats) == 0 {
		b.sendKey(c, "no_categories")
		return
	}
	b.sendWithInline(c.id, c.t("choose_category"), categoryKeyboard(cats))
}

func (b *Bot) sendFoodTypes(ctx context.Context, c *chat, categoryID int64, messageID int) {
	fts, err := b.backend.FoodTypes(ctx, categoryID)
	if err != nil {
		b.log.Warn("list food types", zap.Int64("category_id", categoryID), zap.Error(err))
		b.sendKey(c, errorKey(err))
		return
	}
	text := c.t("choose_food")
	if len(fts) == 0 {
		text = c.t("no_food_types")
	}
	kb := foodTypeKeyboard(fts, c.lang)
	b.edit(c.id, messageID, text, &kb)
}

// handleMenuOverview fetches every category's food types concurrently and
// reports how many each one has.
func (b *Bot) handleMenuOverview(ctx context.Context, c *chat) {
	cats, err := b.backend.Categories(ctx)
	if err != nil {
		b.sendKey(c, errorKey(err))
		return
	}
	if len(cats) == 0 {
		b.sendKey(c, "no_categories")
		return
	}

	counts := make([]int, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, cat := range cats {
		i, cat := i, cat
		g.Go(func() error {
			fts, err := b.backend.FoodTypes(gctx, cat.ID)
			if err != nil {
				return fmt.Errorf("category %d: %w", cat.ID, err)
			}
			counts[i] = len(fts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.log.Warn("menu overview", zap.Int64("chat_id", c.id), zap.Error(err))
		b.sendKey(c, errorKey(err))
		return
	}

	var sb strings.Builder
	sb.WriteString(c.t("menu_overview"))
	for i, cat := range cats {
		sb.WriteString("\n")
		sb.WriteString(c.t("overview_line", cat.Name, counts[i]))
	}
	b.sendWithInline(c.id, sb.String(), categoryKeyboard(cats))
}

// openBuilder replaces the chat's builder and fetches the food type in the
// background. The result is shown only if that builder is still the active
// one when the fetch returns. Caller holds c.mu.
func (b *Bot) openBuilder(ctx context.Context, c *chat, foodTypeID int64) {
	bld := builder.New(foodTypeID, builder.Deps{
		Catalog:   b.backend,
		Orders:    b.backend,
		Auth:      c.sess,
		Transient: c.transient,
		Publisher: b.pub,
		Log:       b.log.With(zap.Int64("chat_id", c.id)),
		ChatID:    c.id,
	})
	c.builder = bld
	c.form = nil
	c.screenID = b.send(c.id, c.t("loading"))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := bld.Activate(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.builder != bld {
			b.log.Debug("discarding food type fetch for inactive builder", zap.Int64("food_type_id", foodTypeID))
			return
		}
		if err != nil {
			b.edit(c.id, c.screenID, c.t(errorKey(err)), nil)
			return
		}
		b.renderBuilder(c)
	}()
}
