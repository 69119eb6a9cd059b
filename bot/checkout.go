package bot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"food-builder/api"
	"food-builder/builder"
	"food-builder/currency"
)

type formStep int

const (
	stepName formStep = iota
	stepPhone
	stepAddress
	stepNotes
)

// formState is the order form conversation in progress.
type formState struct {
	step formStep
	form builder.Form
}

// startForm begins the conversation, prefilled from the builder's last form.
// Caller holds c.mu.
func (b *Bot) startForm(c *chat) {
	c.form = &formState{step: stepName, form: c.builder.Form()}
	b.askStep(c)
}

func (b *Bot) askStep(c *chat) {
	f := c.form
	switch f.step {
	case stepName:
		if f.form.CustomerName != "" {
			b.sendKey(c, "ask_name_prefilled", f.form.CustomerName)
		} else {
			b.sendKey(c, "ask_name")
		}
	case stepPhone:
		b.sendKey(c, "ask_phone")
	case stepAddress:
		b.sendKey(c, "ask_address")
	case stepNotes:
		b.sendKey(c, "ask_notes")
	}
}

// handleFormInput consumes a message while the form is open. It returns false
// for commands the form does not handle.
func (b *Bot) handleFormInput(ctx context.Context, c *chat, cmd, text string) bool {
	f := c.form
	switch cmd {
	case "/cancel":
		c.form = nil
		b.sendKey(c, "form_cancelled")
		c.screenID = 0
		b.renderBuilder(c)
		return true
	case "/skip":
		if !b.skipStep(c) {
			b.sendKey(c, "field_required")
			return true
		}
	case "":
		if text == "" {
			b.sendKey(c, "field_required")
			return true
		}
		switch f.step {
		case stepName:
			f.form.CustomerName = text
		case stepPhone:
			f.form.Phone = text
		case stepAddress:
			f.form.Address = text
		case stepNotes:
			f.form.Notes = text
		}
	default:
		return false
	}

	if f.step == stepNotes {
		b.submit(ctx, c)
		return true
	}
	f.step++
	b.askStep(c)
	return true
}

// skipStep keeps the prefilled value of the current field. Required fields
// can only be skipped when they already hold a value; the name may also be
// left empty by signed-in customers.
func (b *Bot) skipStep(c *chat) bool {
	f := c.form
	switch f.step {
	case stepName:
		return f.form.CustomerName != "" || c.sess.IsAuthenticated()
	case stepPhone:
		return f.form.Phone != ""
	case stepAddress:
		return f.form.Address != ""
	case stepNotes:
		f.form.Notes = ""
		return true
	}
	return false
}

// submit posts the order in the background so the chat stays usable while
// the request is in flight. The builder snapshots its selection first.
// Caller holds c.mu.
func (b *Bot) submit(ctx context.Context, c *chat) {
	bld := c.builder
	form := c.form.form
	c.form = nil
	if bld == nil {
		b.sendKey(c, "builder_expired")
		return
	}
	b.sendKey(c, "submitting")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		res, err := bld.Submit(ctx, form)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			b.orderFailed(c, bld, form, err)
			return
		}
		b.orderPlaced(ctx, c, bld, res)
	}()
}

func (b *Bot) orderFailed(c *chat, bld *builder.Builder, form builder.Form, err error) {
	b.log.Warn("order failed", zap.Int64("chat_id", c.id), zap.Error(err))
	switch {
	case errors.Is(err, builder.ErrMissingField):
		bld.SetForm(form)
		b.sendKey(c, "field_required")
	case errors.Is(err, api.ErrNetwork):
		b.sendKey(c, "network_error")
	default:
		b.sendKey(c, "order_failed")
	}
	if c.builder == bld {
		c.screenID = 0
		b.renderBuilder(c)
	}
}

func (b *Bot) orderPlaced(ctx context.Context, c *chat, bld *builder.Builder, res builder.Result) {
	b.sendKey(c, "order_placed", currency.Format(res.Draft.TotalPrice, c.lang))
	if c.builder == bld {
		c.builder = nil
		c.screenID = 0
	}
	switch res.Next {
	case builder.NextOrders:
		b.handleOrders(ctx, c)
	default:
		b.handleStart(c)
	}
}
