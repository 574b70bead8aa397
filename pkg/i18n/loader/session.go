package loader

import (
	"sync"

	"github.com/nimburion/i18nloader/pkg/i18n"
)

// Session is the handle a gadget gets from LoadMessages. It owns a private
// copy of the catalog and tracks which language messages are shown in.
//
// The default language view is built once and reused until the default
// language changes. A temporary language applies to the next Messages call
// only. Methods are safe for concurrent use, though a temporary language set
// by one goroutine is consumed by whichever call comes next.
type Session struct {
	mu          sync.Mutex
	loader      *Loader
	name        string
	catalog     *i18n.Catalog
	userLang    string
	cacheAll    bool
	degraded    bool
	defaultLang string
	tempLang    string
	defaultView *Messages
}

func newSession(l *Loader, name string, catalog *i18n.Catalog, eff effectiveOptions, degraded bool) *Session {
	return &Session{
		loader:      l,
		name:        name,
		catalog:     catalog,
		userLang:    eff.Language,
		cacheAll:    eff.CacheAll.Enabled(),
		degraded:    degraded,
		defaultLang: eff.Language,
	}
}

// Name returns the gadget name the session was loaded for.
func (s *Session) Name() string { return s.name }

// Degraded reports whether the catalog could not be loaded from any source
// and the session serves a stale or empty catalog.
func (s *Session) Degraded() bool { return s.degraded }

// Catalog returns a copy of the raw catalog backing the session.
func (s *Session) Catalog() *i18n.Catalog {
	return s.catalog.Clone()
}

// DefaultLang returns the current default language.
func (s *Session) DefaultLang() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultLang
}

// LangTag returns the default language in BCP 47 form.
func (s *Session) LangTag() string {
	return i18n.Normalize(s.DefaultLang())
}

// SetDefaultLang changes the default language and drops the memoized view.
func (s *Session) SetDefaultLang(lang string) {
	s.mu.Lock()
	s.defaultLang = i18n.CatalogCode(lang)
	s.defaultView = nil
	s.mu.Unlock()
}

// SetTempLang sets the language of the next Messages call.
func (s *Session) SetTempLang(lang string) {
	s.mu.Lock()
	s.tempLang = i18n.CatalogCode(lang)
	s.mu.Unlock()
}

// Messages returns the message view for the temporary language if one is
// set, consuming it, or the default language otherwise.
func (s *Session) Messages() *Messages {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tempLang == "" && s.defaultView != nil {
		return s.defaultView
	}
	if s.defaultLang == "" {
		s.loader.log.Error("default language is not set", "name", s.name)
	}

	lang := s.defaultLang
	if s.tempLang != "" {
		lang = s.tempLang
	}
	view := s.buildView(lang)

	if s.tempLang != "" {
		s.tempLang = ""
		return view
	}
	s.defaultView = view
	return view
}

// Msg returns the message key in the current language; see Messages.Msg.
func (s *Session) Msg(key string) string {
	return s.Messages().Msg(key)
}

func (s *Session) buildView(lang string) *Messages {
	entries := s.catalog.Language(lang)
	if entries == nil {
		entries = s.catalog.Language(i18n.BaselineLanguage)
		if entries != nil {
			s.loader.log.Warn("no messages for language, using English", "name", s.name, "lang", lang)
		} else {
			s.loader.log.Error("no messages to load", "name", s.name)
			entries = map[string]string{}
		}
	}
	for key, value := range s.loader.overrides.Lookup(s.name) {
		entries[key] = value
	}
	return newMessages(s.loader, s.name, lang, entries)
}

// UseLang is kept for older gadgets and selects the user language.
//
// Deprecated: use UseUserLang or SetDefaultLang.
func (s *Session) UseLang(string) {
	s.loader.log.Warn("UseLang is no longer supported, using user language", "name", s.name)
	s.UseUserLang()
}

// InLang sets the language of the next Messages call. Catalogs loaded without
// cacheAll may lack arbitrary languages, so without it the call only warns
// and the user language stays in effect.
func (s *Session) InLang(lang string) *Session {
	if !s.cacheAll {
		s.loader.log.Warn("InLang requires cacheAll, using user language", "name", s.name, "lang", lang)
		return s
	}
	s.SetTempLang(lang)
	return s
}

// UseContentLang makes the site content language the default.
func (s *Session) UseContentLang() { s.SetDefaultLang(s.loader.ambient.ContentLanguage) }

// InContentLang uses the site content language for the next call.
func (s *Session) InContentLang() *Session {
	s.SetTempLang(s.loader.ambient.ContentLanguage)
	return s
}

// UsePageLang makes the page content language the default.
func (s *Session) UsePageLang() { s.SetDefaultLang(s.loader.ambient.PageContentLanguage) }

// InPageLang uses the page content language for the next call.
func (s *Session) InPageLang() *Session {
	s.SetTempLang(s.loader.ambient.PageContentLanguage)
	return s
}

// UsePageViewLang makes the page view language the default: the user's
// variant, else the page language, else the content language.
func (s *Session) UsePageViewLang() { s.SetDefaultLang(s.loader.ambient.PageViewLanguage()) }

// InPageViewLang uses the page view language for the next call.
func (s *Session) InPageViewLang() *Session {
	s.SetTempLang(s.loader.ambient.PageViewLanguage())
	return s
}

// UseUserLang makes the language the session was loaded for the default.
func (s *Session) UseUserLang() { s.SetDefaultLang(s.userLang) }

// InUserLang uses the language the session was loaded for in the next call.
func (s *Session) InUserLang() *Session {
	s.SetTempLang(s.userLang)
	return s
}
