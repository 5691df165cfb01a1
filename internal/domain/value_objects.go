package domain

import (
	"strings"

	"github.com/startera/internal/constants"
)

// ============================================================================
// Value Objects
// ============================================================================

// Theme is the persisted colour scheme preference
type Theme string

const (
	ThemeLight Theme = constants.ThemeLight
	ThemeDark  Theme = constants.ThemeDark
)

// ParseTheme returns the theme for a stored value; anything unknown is light
func ParseTheme(value string) Theme {
	if Theme(value) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle flips between light and dark
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) String() string {
	return string(t)
}

// ============================================================================

// Language is the persisted interface language preference
type Language string

const (
	LanguageTurkish Language = constants.LanguageTurkish
	LanguageEnglish Language = constants.LanguageEnglish
	LanguageArabic  Language = constants.LanguageArabic
)

// DefaultLanguage is used when nothing valid is stored
const DefaultLanguage = LanguageTurkish

// SupportedLanguages lists languages in toggle order
var SupportedLanguages = []Language{LanguageTurkish, LanguageEnglish, LanguageArabic}

// ParseLanguage returns the language for a stored value and whether it was recognised
func ParseLanguage(value string) (Language, bool) {
	candidate := Language(strings.ToLower(strings.TrimSpace(value)))
	for _, lang := range SupportedLanguages {
		if lang == candidate {
			return lang, true
		}
	}
	return DefaultLanguage, false
}

// Next returns the following language in the tr -> en -> ar -> tr cycle
func (l Language) Next() Language {
	switch l {
	case LanguageTurkish:
		return LanguageEnglish
	case LanguageEnglish:
		return LanguageArabic
	default:
		return LanguageTurkish
	}
}

// Direction returns the text direction for the language
func (l Language) Direction() string {
	if l == LanguageArabic {
		return "rtl"
	}
	return "ltr"
}

func (l Language) String() string {
	return string(l)
}

// ============================================================================

// NormalizeEmail trims and lower-cases an e-mail address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserNameFromEmail returns the local part of an e-mail address
func UserNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
