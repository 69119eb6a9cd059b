package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"food-builder/builder"
	"food-builder/currency"
	"food-builder/lang"
	"food-builder/models"
)

// Callback data prefixes.
const (
	cbCategory = "cat:"
	cbFoodType = "ft:"
	cbToggle   = "tg:"
	cbUp       = "up:"
	cbDown     = "dn:"
	cbReorder  = "ro:"
	cbOrder    = "order"
	cbCats     = "cats"
	cbNoop     = "noop"
)

// gridColumns is the number of ingredient cards per keyboard row.
const gridColumns = 2

func idData(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// parseID reads the id after prefix, or false when data does not carry one.
func parseID(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func categoryKeyboard(cats []models.Category) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range cats {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, idData(cbCategory, c.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func foodTypeKeyboard(fts []models.FoodType, l string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ft := range fts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s · %s", ft.Name, currency.Format(ft.BasePrice, l)),
				idData(cbFoodType, ft.ID),
			),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "back_cats"), cbCats),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func builderText(v builder.View, l string, restored bool) string {
	var sb strings.Builder
	sb.WriteString(v.FoodType.Name)
	sb.WriteString("\n")
	sb.WriteString(lang.T(l, "base_price", currency.Format(v.FoodType.BasePrice, l)))
	if restored {
		sb.WriteString("\n")
		sb.WriteString(lang.T(l, "reorder_restored"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(lang.T(l, "your_build"))
	sb.WriteString("\n")
	for i, ing := range v.Selected {
		fmt.Fprintf(&sb, "%d. %s", i+1, ing.Name)
		if !ing.IsDefault && ing.Price.IsPositive() {
			fmt.Fprintf(&sb, " (+%s)", currency.Format(ing.Price, l))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(lang.T(l, "total", currency.Format(v.Total, l)))
	return sb.String()
}

// builderKeyboard renders the selected list with move and remove buttons,
// then the ingredient grid, then the order button.
func builderKeyboard(v builder.View, l string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, ing := range v.Selected {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", i+1, ing.Name), cbNoop),
		}
		if i > 0 {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬆", idData(cbUp, ing.ID)))
		}
		if i < len(v.Selected)-1 {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬇", idData(cbDown, ing.ID)))
		}
		if !ing.IsDefault {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖", idData(cbToggle, ing.ID)))
		}
		rows = append(rows, row)
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, item := range v.Grid {
		row = append(row, gridButton(item, l))
		if len(row) == gridColumns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "place_order", currency.Format(v.Total, l)), cbOrder),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "back_cats"), cbCats),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func gridButton(item builder.GridItem, l string) tgbotapi.InlineKeyboardButton {
	if item.IsDefault {
		return tgbotapi.NewInlineKeyboardButtonData("🔒 "+item.Name, cbNoop)
	}
	label := item.Name + " +" + currency.Format(item.Price, l)
	if item.Selected {
		label = "✅ " + label
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, idData(cbToggle, item.ID))
}

// ordersText lists orders newest first as returned by the API, one line per
// order followed by each item's ingredients in serve order.
func ordersText(orders []models.Order, l string) string {
	var sb strings.Builder
	sb.WriteString(lang.T(l, "orders_header"))
	sb.WriteString("\n")
	for _, o := range orders {
		sb.WriteString("\n")
		sb.WriteString(lang.T(l, "order_line", strconv.FormatInt(o.ID, 10), o.CreatedAt.Format("2006-01-02 15:04"), currency.Format(o.TotalPrice, l)))
		sb.WriteString("\n")
		for i := range o.Items {
			it := &o.Items[i]
			names := make([]string, 0, len(it.SelectedIngredients))
			for _, ing := range it.OrderedIngredients() {
				names = append(names, ing.Name)
			}
			fmt.Fprintf(&sb, "  %s: %s\n", it.FoodType.Name, strings.Join(names, ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// reorderPayloads maps each order to a payload for its first item. Orders
// without items get no reorder button.
func reorderPayloads(orders []models.Order) map[int64]models.ReorderPayload {
	out := make(map[int64]models.ReorderPayload, len(orders))
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		it := &o.Items[0]
		out[o.ID] = models.ReorderPayload{FoodTypeID: it.FoodType.ID, IngredientIDs: it.ReorderIDs()}
	}
	return out
}

func ordersKeyboard(orders []models.Order, l string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "reorder", strconv.FormatInt(o.ID, 10)), idData(cbReorder, o.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
