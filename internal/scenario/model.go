package scenario

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("scenario not found")

const DefaultLanguage = "en"

var supportedLanguages = map[string]bool{"en": true, "cs": true, "sk": true}

// IsSupportedLanguage reports whether lang names a language scenarios are
// translated into.
func IsSupportedLanguage(lang string) bool {
	return supportedLanguages[lang]
}

// NormalizeLanguage maps a client language code onto a supported one.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if supportedLanguages[lang] {
		return lang
	}
	return DefaultLanguage
}

// Summary is the catalogue entry returned by the list endpoint.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	LearningPath string `json:"learning_path"`
	Difficulty   string `json:"difficulty"`
}

// Scenario is one practice case resolved for a language.
type Scenario struct {
	ID                    string   `json:"id"`
	Language              string   `json:"language"`
	Title                 string   `json:"title"`
	LearningPath          string   `json:"learning_path"`
	Difficulty            string   `json:"difficulty"`
	Goal                  string   `json:"goal"`
	OpeningLine           string   `json:"opening_line"`
	MessageLimit          int      `json:"message_limit"`
	InitialEmotionalState string   `json:"initial_emotional_state,omitempty"`
	Skills                []string `json:"skills"`

	// Persona and voice stay server-side.
	PersonaPrompt string `json:"-"`
	VoiceID       string `json:"-"`
}
