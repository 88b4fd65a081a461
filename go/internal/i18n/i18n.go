// Package i18n provides the localized message catalog for every dialog and
// notification text the engine emits. Messages use #{name} placeholders
// interpolated at lookup time.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

// Translator resolves message keys for one negotiated locale.
type Translator struct {
	catalog map[string]string
}

// New negotiates the best supported locale for the given BCP 47 preferences
// (e.g. "es-ES", "en"). Unknown or empty preferences fall back to English.
func New(locales ...string) *Translator {
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		if tag, err := language.Parse(l); err == nil {
			tags = append(tags, tag)
		}
	}
	_, idx, _ := matcher.Match(tags...)
	switch supported[idx] {
	case language.Spanish:
		return &Translator{catalog: spanish}
	default:
		return &Translator{catalog: english}
	}
}

// Args carries interpolation parameters for a message.
type Args map[string]any

// T resolves a message key, interpolating #{name} placeholders from args.
// Unknown keys resolve to the key itself so a missing translation is visible
// rather than silent.
func (t *Translator) T(key string, args Args) string {
	msg, ok := t.catalog[key]
	if !ok {
		msg, ok = english[key]
		if !ok {
			return key
		}
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "#{"+name+"}", fmt.Sprintf("%v", value))
	}
	return msg
}
