package domain

// Language is a UI language the app can render.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageKorean    Language = "ko"
	LanguageHungarian Language = "hu"
)

// DefaultLanguage is used whenever a user has no or an unsupported preference.
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists every language code the backend can localize into.
var SupportedLanguages = []Language{LanguageEnglish, LanguageKorean, LanguageHungarian}

// ParseLanguage reports whether code is one of the supported languages.
func ParseLanguage(code string) (Language, bool) {
	for _, l := range SupportedLanguages {
		if string(l) == code {
			return l, true
		}
	}
	return "", false
}
