// Package lang holds the bot's user-facing strings.
package lang

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	En = "en"
	Ar = "ar"
)

var tags = map[string]language.Tag{
	En: language.English,
	Ar: language.Arabic,
}

// Supported reports whether l has a string table.
func Supported(l string) bool {
	_, ok := tags[l]
	return ok
}

var printers = newPrinters()

func newPrinters() map[string]*message.Printer {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	for l, table := range texts {
		for key, msg := range table {
			mustSet(cat, tags[l], key, msg)
		}
	}
	// Keys missing from a table resolve through the root to English.
	for key, msg := range texts[En] {
		mustSet(cat, language.Und, key, msg)
	}

	out := make(map[string]*message.Printer, len(tags))
	for l, tag := range tags {
		out[l] = message.NewPrinter(tag, message.Catalog(cat))
	}
	return out
}

func mustSet(cat *catalog.Builder, tag language.Tag, key, msg string) {
	if err := cat.SetString(tag, key, msg); err != nil {
		panic(fmt.Sprintf("lang: %s/%s: %v", tag, key, err))
	}
}

// T returns the string for key in l, falling back to English and then to the
// key itself. Args are formatted by the language's printer, so numbers follow
// its conventions; pass identifiers as strings.
func T(l, key string, args ...interface{}) string {
	p, ok := printers[l]
	if !ok {
		p = printers[En]
	}
	return p.Sprintf(key, args...)
}

var texts = map[string]map[string]string{
	En: {
		"welcome":            "Build your own meal. Pick a category with /menu.",
		"welcome_user":       "Welcome back, %s! Pick a category with /menu.",
		"categories":         "Categories",
		"choose_category":    "Choose a category:",
		"no_categories":      "No categories yet.",
		"choose_food":        "Choose what to build:",
		"no_food_types":      "Nothing in this category yet.",
		"menu_overview":      "Menu overview",
		"overview_line":      "%s: %d items",
		"back_cats":          "⬅ Categories",
		"loading":            "Loading…",
		"load_failed":        "Could not load the menu. Try again later.",
		"not_found":          "This item is no longer available.",
		"builder_expired":    "Open a food type from /menu first.",
		"base_price":         "Base price: %s",
		"your_build":         "Your build",
		"total":              "Total: %s",
		"ingredients":        "Ingredients",
		"place_order":        "Place order · %s",
		"reorder_restored":   "Restored your previous build.",
		"ask_name":           "Your name?",
		"ask_name_prefilled": "Your name? Send /skip to use %s.",
		"ask_phone":          "Phone number?",
		"ask_address":        "Delivery address?",
		"ask_notes":          "Any notes? Send /skip for none.",
		"field_required":     "This field is required.",
		"form_cancelled":     "Order cancelled. Your build is kept.",
		"submitting":         "Placing your order…",
		"order_placed":       "Order placed! Total %s.",
		"order_failed":       "Could not place the order. Your build is kept, try again.",
		"network_error":      "Network error. Check your connection and try again.",
		"orders_header":      "Your orders",
		"orders_empty":       "You have no orders yet.",
		"order_line":         "Order #%s · %s · %s",
		"reorder":            "Reorder #%s",
		"login_required":     "Please /login to see your orders.",
		"login_usage":        "Usage: /login <username> <password>",
		"register_usage":     "Usage: /register <username> <email> <password> <password2> [first name] [last name]",
		"login_ok":           "Signed in as %s.",
		"login_failed":       "Invalid username or password.",
		"login_throttled":    "Too many attempts. Try again in %d s.",
		"register_failed":    "Registration failed: %s",
		"password_mismatch":  "Passwords do not match.",
		"logout_ok":          "Signed out.",
		"whoami_guest":       "You are browsing as a guest.",
		"whoami_user":        "Signed in as %s.",
		"whoami_expiry":      "Token expires %s.",
		"language_usage":     "Usage: /language en|ar",
		"language_changed":   "Language changed to English.",
		"unknown_command":    "Unknown command. Try /menu.",
		"busy":               "Still working on your last request. Try again in a moment.",
	},
	Ar: {
		"welcome":            "اصنع وجبتك بنفسك. اختر فئة عبر /menu.",
		"welcome_user":       "مرحبًا بعودتك يا %s! اختر فئة عبر /menu.",
		"categories":         "الفئات",
		"choose_category":    "اختر فئة:",
		"no_categories":      "لا توجد فئات بعد.",
		"choose_food":        "اختر ما تريد تحضيره:",
		"no_food_types":      "لا يوجد شيء في هذه الفئة بعد.",
		"menu_overview":      "نظرة عامة على القائمة",
		"overview_line":      "%s: %d عناصر",
		"back_cats":          "⬅ الفئات",
		"loading":            "جارٍ التحميل…",
		"load_failed":        "تعذر تحميل القائمة. حاول لاحقًا.",
		"not_found":          "هذا العنصر لم يعد متاحًا.",
		"builder_expired":    "افتح صنفًا من /menu أولًا.",
		"base_price":         "السعر الأساسي: %s",
		"your_build":         "طبقك",
		"total":              "الإجمالي: %s",
		"ingredients":        "المكونات",
		"place_order":        "اطلب الآن · %s",
		"reorder_restored":   "تمت استعادة طلبك السابق.",
		"ask_name":           "ما اسمك؟",
		"ask_name_prefilled": "ما اسمك؟ أرسل /skip لاستخدام %s.",
		"ask_phone":          "رقم الهاتف؟",
		"ask_address":        "عنوان التوصيل؟",
		"ask_notes":          "أي ملاحظات؟ أرسل /skip إن لم يكن.",
		"field_required":     "هذا الحقل مطلوب.",
		"form_cancelled":     "تم إلغاء الطلب. تم الاحتفاظ بطبقك.",
		"submitting":         "جارٍ إرسال طلبك…",
		"order_placed":       "تم الطلب! الإجمالي %s.",
		"order_failed":       "تعذر إرسال الطلب. تم الاحتفاظ بطبقك، حاول مرة أخرى.",
		"network_error":      "خطأ في الشبكة. تحقق من الاتصال وحاول مرة أخرى.",
		"orders_header":      "طلباتك",
		"orders_empty":       "لا توجد طلبات بعد.",
		"order_line":         "طلب #%s · %s · %s",
		"reorder":            "إعادة الطلب #%s",
		"login_required":     "سجّل الدخول عبر /login لعرض طلباتك.",
		"login_usage":        "الاستخدام: /login <اسم المستخدم> <كلمة المرور>",
		"register_usage":     "الاستخدام: /register <اسم المستخدم> <البريد> <كلمة المرور> <تأكيدها> [الاسم الأول] [اسم العائلة]",
		"login_ok":           "تم تسجيل الدخول باسم %s.",
		"login_failed":       "اسم المستخدم أو كلمة المرور غير صحيحة.",
		"login_throttled":    "محاولات كثيرة. حاول مرة أخرى بعد %d ثانية.",
		"register_failed":    "فشل التسجيل: %s",
		"password_mismatch":  "كلمتا المرور غير متطابقتين.",
		"logout_ok":          "تم تسجيل الخروج.",
		"whoami_guest":       "أنت تتصفح كضيف.",
		"whoami_user":        "مسجّل الدخول باسم %s.",
		"whoami_expiry":      "ينتهي الرمز في %s.",
		"language_usage":     "الاستخدام: /language en|ar",
		"language_changed":   "تم تغيير اللغة إلى العربية.",
		"unknown_command":    "أمر غير معروف. جرّب /menu.",
		"busy":               "ما زلنا نعالج طلبك السابق. حاول بعد لحظة.",
	},
}
