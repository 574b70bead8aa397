package loader

import (
	"sort"

	"github.com/nimburion/i18nloader/pkg/i18n"
)

// Messages is an immutable message view for one language.
type Messages struct {
	loader  *Loader
	name    string
	lang    string
	entries map[string]string
}

func newMessages(l *Loader, name, lang string, entries map[string]string) *Messages {
	return &Messages{loader: l, name: name, lang: lang, entries: entries}
}

// Lang returns the catalog code of the view's language.
func (m *Messages) Lang() string { return m.lang }

// LangTag returns the view's language in BCP 47 form.
func (m *Messages) LangTag() string { return i18n.Normalize(m.lang) }

// Get returns the message stored for key.
func (m *Messages) Get(key string) (string, bool) {
	value, ok := m.entries[key]
	return value, ok && value != ""
}

// Msg returns the message for key, or key itself when the view has none.
// Each missing key is reported once per loader.
func (m *Messages) Msg(key string) string {
	if value, ok := m.Get(key); ok {
		return value
	}
	m.loader.reportMissing(m.name, m.lang, key)
	return key
}

// Keys returns the view's message keys in sorted order.
func (m *Messages) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of messages in the view.
func (m *Messages) Len() int { return len(m.entries) }

// Map returns a copy of the view's messages.
func (m *Messages) Map() map[string]string {
	out := make(map[string]string, len(m.entries))
	for key, value := range m.entries {
		out[key] = value
	}
	return out
}
