// Package lang validates the language used for formula explanations.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a validated BCP 47 language tag.
// Zero value means "not specified" and is treated as English by callers.
type Language struct {
	tag language.Tag
	set bool
}

// English is the pre-parsed default explanation language.
var English = Language{tag: language.English, set: true}

// Parse validates a language code such as "fr", "pt-BR" or "pt_BR".
// Empty string returns the zero Language without error.
func Parse(s string) (Language, error) {
	if s == "" {
		return Language{}, nil
	}
	tag, err := language.Parse(Normalize(s))
	if err != nil {
		return Language{}, fmt.Errorf("invalid language code %q (use codes like 'en', 'fr', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{tag: tag, set: true}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Normalize lowercases a code and uses hyphens as separator.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", "-"))
}

// IsZero returns true if no language was specified.
func (l Language) IsZero() bool {
	return !l.set
}

// String returns the canonical tag ("pt-BR"), or empty string for zero value.
func (l Language) String() string {
	if !l.set {
		return ""
	}
	return l.tag.String()
}

// BaseCode returns the ISO 639 base language ("pt" for "pt-BR").
func (l Language) BaseCode() string {
	if !l.set {
		return ""
	}
	base, _ := l.tag.Base()
	return base.String()
}

// IsEnglish returns true for any English variant.
// Prompts are written in English, so these need no extra instruction.
func (l Language) IsEnglish() bool {
	return l.BaseCode() == "en"
}

// DisplayName returns the English name of the language, e.g. "Brazilian Portuguese".
// Falls back to the tag itself when no name is known.
func (l Language) DisplayName() string {
	if !l.set {
		return ""
	}
	if name := display.English.Tags().Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}
