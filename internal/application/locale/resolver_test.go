package locale

import (
	"testing"

	"github.com/go-market-triggers/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolve_ChatUsesMessageText(t *testing.T) {
	got := Resolve(domain.LanguageKorean, domain.ChatPayload{Text: "안녕하세요"})
	assert.Equal(t, "새 메시지", got.Title)
	assert.Equal(t, "안녕하세요", got.Body)
}

func TestResolve_ChatEmptyTextFallsBackToDefaultBody(t *testing.T) {
	got := Resolve(domain.LanguageHungarian, domain.ChatPayload{})
	assert.Equal(t, "Új üzenet", got.Title)
	assert.Equal(t, "Új üzeneted érkezett.", got.Body)
}

func TestResolve_ChatWhitespaceTextIsVerbatim(t *testing.T) {
	got := Resolve(domain.LanguageEnglish, domain.ChatPayload{Text: "   "})
	assert.Equal(t, "   ", got.Body)
}

func TestResolve_UnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	for _, lang := range []domain.Language{"", "de", "EN"} {
		got := Resolve(lang, domain.LikePayload{ListingTitle: "Bike"})
		assert.Equal(t, "Someone liked your item", got.Title, "lang=%q", lang)
		assert.Contains(t, got.Body, "Bike")
	}
}

func TestResolve_PriceDropIncludesTitleAndNewPrice(t *testing.T) {
	got := Resolve(domain.LanguageEnglish, domain.PriceDropPayload{
		ListingTitle: "Desk", OldPrice: 20000, NewPrice: 15000, Currency: "KRW",
	})
	assert.Equal(t, "Price drop!", got.Title)
	assert.Equal(t, "\"Desk\" is now 15,000 KRW.", got.Body)
}

func TestResolve_EveryLanguageCoversEveryKind(t *testing.T) {
	payloads := []domain.NotificationPayload{
		domain.ChatPayload{}, domain.LikePayload{}, domain.PriceDropPayload{},
	}
	for _, lang := range domain.SupportedLanguages {
		for _, p := range payloads {
			got := Resolve(lang, p)
			assert.NotEmpty(t, got.Title, "lang=%s kind=%s", lang, p.Kind())
			assert.NotEmpty(t, got.Body, "lang=%s kind=%s", lang, p.Kind())
		}
	}
}

func TestResolve_NilPayload(t *testing.T) {
	got := Resolve(domain.LanguageKorean, nil)
	assert.Equal(t, "알림", got.Title)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0", FormatPrice(0, ""))
	assert.Equal(t, "999", FormatPrice(999, ""))
	assert.Equal(t, "1,000", FormatPrice(1000, ""))
	assert.Equal(t, "1,234,567 KRW", FormatPrice(1234567, "KRW"))
	assert.Equal(t, "12.99 USD", FormatPrice(1299, "USD"))
	assert.Equal(t, "1,000.05 EUR", FormatPrice(100005, "EUR"))
	assert.Equal(t, "0.07 USD", FormatPrice(7, "USD"))
	assert.Equal(t, "-3.50 USD", FormatPrice(-350, "USD"))
	assert.Equal(t, "500 XYZ", FormatPrice(500, "XYZ"))
	assert.Equal(t, "-12,000", FormatPrice(-12000, ""))
}
