// Package i18n looks up user-facing messages by key in the caller's
// language. Spanish (Mexico) is the default; a key with no translation is
// returned as-is.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam selects a language for one request.
	LangParam = "lang"
	// LangCookieName stores the preferred language.
	LangCookieName = "opinwork_lang"
)

var (
	SpanishMX = language.MustParse("es-MX")
	English   = language.English
)

// Bundle holds the catalogues and the matcher built from them.
type Bundle struct {
	def      language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	catalogs map[language.Tag]map[string]string
}

// New returns a bundle whose default language is def, falling back to
// es-MX when def is empty or unsupported.
func New(def string) *Bundle {
	b := &Bundle{
		def:  SpanishMX,
		tags: []language.Tag{SpanishMX, English},
		catalogs: map[language.Tag]map[string]string{
			SpanishMX: esMX,
			English:   en,
		},
	}
	b.matcher = language.NewMatcher(b.tags)
	if tag, ok := b.parse(def); ok && tag != b.def {
		// The matcher treats the first tag as the fallback.
		b.def = tag
		b.tags = []language.Tag{tag, SpanishMX}
		b.matcher = language.NewMatcher(b.tags)
	}
	return b
}

// Default is the fallback language.
func (b *Bundle) Default() language.Tag { return b.def }

// Supported lists the languages with a catalogue.
func (b *Bundle) Supported() []language.Tag { return b.tags }

// parse maps value onto a supported tag.
func (b *Bundle) parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	if m := b.match(tag); m != language.Und {
		return m, true
	}
	return language.Und, false
}

// match returns the supported tag for tags, or Und when nothing matches.
func (b *Bundle) match(tags ...language.Tag) language.Tag {
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return language.Und
	}
	return b.tags[idx]
}

// Resolve picks the request language from the lang query parameter, then
// the lang cookie, then Accept-Language.
func (b *Bundle) Resolve(r *http.Request) language.Tag {
	if tag, ok := b.parse(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if c, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := b.parse(c.Value); ok {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if m := b.match(tags...); m != language.Und {
				return m
			}
		}
	}
	return b.def
}

// Normalize maps value onto a supported tag, or the default.
func (b *Bundle) Normalize(value string) language.Tag {
	if tag, ok := b.parse(value); ok {
		return tag
	}
	return b.def
}

// T returns the message for key in tag.
func (b *Bundle) T(tag language.Tag, key string) string {
	if cat, ok := b.catalogs[tag]; ok {
		if msg, ok := cat[key]; ok {
			return msg
		}
	}
	if msg, ok := b.catalogs[b.def][key]; ok {
		return msg
	}
	return key
}

// Printer returns a lookup bound to the request language.
func (b *Bundle) Printer(r *http.Request) func(key string) string {
	tag := b.Resolve(r)
	return func(key string) string { return b.T(tag, key) }
}

// SetLanguageCookie persists the selected language.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
