package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	assert.Equal(t, "Signed in as sara.", T(En, "login_ok", "sara"))
	assert.Equal(t, "Phone number?", T("fr", "ask_phone"), "unknown language falls back to English")
	assert.Equal(t, "no_such_key", T(Ar, "no_such_key"))
	assert.True(t, strings.HasPrefix(T(Ar, "total", "x"), "الإجمالي"))
}

func TestTablesHaveSameKeys(t *testing.T) {
	for k := range texts[En] {
		_, ok := texts[Ar][k]
		assert.True(t, ok, "missing ar key %q", k)
	}
	assert.Len(t, texts[Ar], len(texts[En]))
}

func TestArabicFallsBackToEnglishPerKey(t *testing.T) {
	saved := texts[Ar]["ask_phone"]
	delete(texts[Ar], "ask_phone")
	printers = newPrinters()
	defer func() {
		texts[Ar]["ask_phone"] = saved
		printers = newPrinters()
	}()

	assert.Equal(t, "Phone number?", T(Ar, "ask_phone"))
	assert.Equal(t, "ما اسمك؟", T(Ar, "ask_name"))
}

func TestIdentifiersAreNotGrouped(t *testing.T) {
	assert.Equal(t, "Reorder #12345", T(En, "reorder", "12345"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(Ar))
	assert.True(t, Supported(En))
	assert.False(t, Supported("uz"))
}
