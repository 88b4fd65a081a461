package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_LocaleNegotiation(t *testing.T) {
	tests := []struct {
		name    string
		locales []string
		key     string
		want    string
	}{
		{"default is english", nil, "notification_time_runout", "Time is up!"},
		{"plain spanish", []string{"es"}, "notification_time_runout", "¡Se acabó el tiempo!"},
		{"regional spanish", []string{"es-MX"}, "notification_time_one_hour", "Queda 1 hora."},
		{"unknown falls back", []string{"zz-ZZ"}, "notification_time_runout", "Time is up!"},
		{"garbage falls back", []string{"not a locale"}, "notification_time_runout", "Time is up!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.locales...)
			assert.Equal(t, tt.want, tr.T(tt.key, nil))
		})
	}
}

func TestT_Interpolation(t *testing.T) {
	tr := New("en")

	got := tr.T("notification_time_hours_and_minutes", Args{"hours": 1, "minutes": 30})
	assert.Equal(t, "1 hours and 30 minutes remaining.", got)

	got = tr.T("notification_ranking_down_overtaken", Args{"other": "Alpha", "team": "Beta", "position": 4})
	assert.Equal(t, "Alpha has overtaken you. Beta drops to position 4.", got)
}

func TestT_UnknownKeyIsVisible(t *testing.T) {
	tr := New("en")
	assert.Equal(t, "no_such_key", tr.T("no_such_key", nil))
}

func TestT_MissingSpanishKeyFallsBackToEnglish(t *testing.T) {
	tr := New("es")
	// Every key present in english resolves even if a translation is missing.
	for key := range english {
		assert.NotEqual(t, key, tr.T(key, nil))
	}
}

func TestCatalogsCoverSameKeys(t *testing.T) {
	for key := range english {
		_, ok := spanish[key]
		assert.True(t, ok, "missing spanish translation for %q", key)
	}
	for key := range spanish {
		_, ok := english[key]
		assert.True(t, ok, "spanish-only key %q", key)
	}
}
