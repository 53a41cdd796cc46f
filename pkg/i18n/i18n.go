// Package i18n localizes user-facing messages. Catalogs are embedded JSON
// files keyed by dot-separated paths ("errors.not_found").
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"strings"
	"sync"
)

//go:embed messages/*.json
var messagesFS embed.FS

// Supported locales
const (
	LocaleEnglish = "en"
	LocaleGerman  = "de"
	DefaultLocale = LocaleEnglish
)

var supported = []string{LocaleEnglish, LocaleGerman}

type localeKey struct{}

var (
	catalogs     map[string]map[string]any
	catalogsOnce sync.Once
)

func loadCatalogs() {
	catalogsOnce.Do(func() {
		catalogs = make(map[string]map[string]any, len(supported))
		for _, locale := range supported {
			data, err := messagesFS.ReadFile("messages/" + locale + ".json")
			if err != nil {
				continue
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			catalogs[locale] = msg
		}
	})
}

// Localizer resolves message keys for one locale.
type Localizer struct {
	locale string
}

// NewLocalizer creates a localizer, falling back to DefaultLocale for unknown locales.
func NewLocalizer(locale string) *Localizer {
	loadCatalogs()
	if !isSupported(locale) {
		locale = DefaultLocale
	}
	return &Localizer{locale: locale}
}

// LocalizerFromContext creates a localizer for the locale stored in ctx.
func LocalizerFromContext(ctx context.Context) *Localizer {
	return NewLocalizer(GetLocaleFromContext(ctx))
}

// T translates key, interpolating {name} placeholders from params.
// Unknown keys are returned unchanged.
func (l *Localizer) T(key string, params ...map[string]string) string {
	msg, ok := lookup(l.locale, key)
	if !ok {
		msg, ok = lookup(DefaultLocale, key)
	}
	if !ok {
		return key
	}
	if len(params) > 0 {
		for k, v := range params[0] {
			msg = strings.ReplaceAll(msg, "{"+k+"}", v)
		}
	}
	return msg
}

// Has reports whether key exists in the localizer's locale or the default one.
func (l *Localizer) Has(key string) bool {
	if _, ok := lookup(l.locale, key); ok {
		return true
	}
	_, ok := lookup(DefaultLocale, key)
	return ok
}

// Locale returns the localizer's locale.
func (l *Localizer) Locale() string {
	return l.locale
}

func lookup(locale, key string) (string, bool) {
	current, ok := catalogs[locale]
	if !ok {
		return "", false
	}
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			s, ok := current[part].(string)
			return s, ok
		}
		nested, ok := current[part].(map[string]any)
		if !ok {
			return "", false
		}
		current = nested
	}
	return "", false
}

func isSupported(locale string) bool {
	for _, s := range supported {
		if s == locale {
			return true
		}
	}
	return false
}

// WithLocale adds locale to context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// GetLocaleFromContext retrieves locale from context
func GetLocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return DefaultLocale
}

// ParseAcceptLanguage returns the first supported language in an
// Accept-Language header, in the order the client listed them.
func ParseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if isSupported(base) {
			return base
		}
	}
	return DefaultLocale
}

// T translates using the default locale
func T(key string, params ...map[string]string) string {
	return NewLocalizer(DefaultLocale).T(key, params...)
}

// TFromContext translates using locale from context
func TFromContext(ctx context.Context, key string, params ...map[string]string) string {
	return LocalizerFromContext(ctx).T(key, params...)
}
