// Package locale renders notification titles and bodies in the recipient's
// language. It performs no I/O and never fails.
package locale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-market-triggers/internal/domain"
	"golang.org/x/text/currency"
)

// Text is a rendered notification title and body.
type Text struct {
	Title string
	Body  string
}

type template struct {
	title string
	body  string // fmt verbs are filled per kind, see Resolve
}

var catalog = map[domain.Language]map[domain.NotificationKind]template{
	domain.LanguageEnglish: {
		domain.KindChat:      {title: "New message", body: "You have a new message."},
		domain.KindLike:      {title: "Someone liked your item", body: "Your listing \"%s\" was added to a wishlist."},
		domain.KindPriceDrop: {title: "Price drop!", body: "\"%s\" is now %s."},
	},
	domain.LanguageKorean: {
		domain.KindChat:      {title: "새 메시지", body: "새 메시지가 도착했습니다."},
		domain.KindLike:      {title: "누군가 내 상품을 찜했어요", body: "\"%s\" 상품이 관심 목록에 추가되었습니다."},
		domain.KindPriceDrop: {title: "가격 인하!", body: "\"%s\" 가격이 %s(으)로 내려갔어요."},
	},
	domain.LanguageHungarian: {
		domain.KindChat:      {title: "Új üzenet", body: "Új üzeneted érkezett."},
		domain.KindLike:      {title: "Valaki kedvelte a terméked", body: "A(z) \"%s\" hirdetésedet kívánságlistára tették."},
		domain.KindPriceDrop: {title: "Árcsökkenés!", body: "A(z) \"%s\" ára most %s."},
	},
}

// genericTitle is used for kinds missing from the catalog.
var genericTitle = map[domain.Language]string{
	domain.LanguageEnglish:   "Notification",
	domain.LanguageKorean:    "알림",
	domain.LanguageHungarian: "Értesítés",
}

// Resolve renders payload in lang. Unsupported or empty languages fall back to English.
func Resolve(lang domain.Language, payload domain.NotificationPayload) Text {
	if _, ok := domain.ParseLanguage(string(lang)); !ok {
		lang = domain.DefaultLanguage
	}
	if payload == nil {
		return Text{Title: genericTitle[lang]}
	}
	tpl, ok := catalog[lang][payload.Kind()]
	if !ok {
		return Text{Title: genericTitle[lang]}
	}

	switch p := payload.(type) {
	case domain.ChatPayload:
		if p.Text != "" {
			return Text{Title: tpl.title, Body: p.Text}
		}
		return Text{Title: tpl.title, Body: tpl.body}
	case domain.LikePayload:
		return Text{Title: tpl.title, Body: fmt.Sprintf(tpl.body, p.ListingTitle)}
	case domain.PriceDropPayload:
		return Text{Title: tpl.title, Body: fmt.Sprintf(tpl.body, p.ListingTitle, FormatPrice(p.NewPrice, p.Currency))}
	default:
		return Text{Title: tpl.title, Body: tpl.body}
	}
}

// FormatPrice renders a minor-unit price in major units with thousands
// separators and an optional currency code suffix, e.g. "12.99 USD" for 1299
// or "12,000 KRW". The decimal exponent comes from the ISO 4217 code; an
// empty or unknown code is treated as having no minor unit.
func FormatPrice(minor int64, code string) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}
	scale := minorDigits(code)
	div := int64(1)
	for i := 0; i < scale; i++ {
		div *= 10
	}
	digits := strconv.FormatInt(minor/div, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if scale > 0 {
		fmt.Fprintf(&b, ".%0*d", scale, minor%div)
	}
	if code != "" {
		b.WriteByte(' ')
		b.WriteString(code)
	}
	return b.String()
}

func minorDigits(code string) int {
	if code == "" {
		return 0
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}
