package loader

import (
	"context"
	"testing"

	"github.com/nimburion/i18nloader/pkg/i18n"
	"github.com/nimburion/i18nloader/pkg/i18n/fetch"
	"github.com/nimburion/i18nloader/pkg/store/memory"
	"github.com/nimburion/i18nloader/pkg/testutil"
)

func TestSession_TempLanguageIsSingleUse(t *testing.T) {
	l, _ := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})

	if got := s.InLang("ja").Msg("title"); got != "タイトル" {
		t.Fatalf("expected ja title, got %q", got)
	}
	if got := s.Msg("title"); got != "Title" {
		t.Fatalf("expected default language title, got %q", got)
	}
}

func TestSession_InLangWithoutCacheAll(t *testing.T) {
	l, log := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{Language: "fr"})

	if got := s.InLang("ja").Msg("title"); got != "Titre" {
		t.Fatalf("expected user language title, got %q", got)
	}
	if log.Count("warn", "InLang requires cacheAll, using user language") != 1 {
		t.Fatalf("expected a warning, got %v", log.Entries())
	}
}

func TestSession_DefaultViewIsMemoized(t *testing.T) {
	l, _ := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})

	first := s.Messages()
	if s.Messages() != first {
		t.Fatal("expected the default view to be reused")
	}

	temp := s.InContentLang().Messages()
	if temp == first {
		t.Fatal("expected a fresh view for the temporary language")
	}
	if s.Messages() != first {
		t.Fatal("expected the default view to survive a temporary language")
	}

	s.SetDefaultLang("de")
	second := s.Messages()
	if second == first {
		t.Fatal("expected SetDefaultLang to drop the memoized view")
	}
	if second.Lang() != "de" || second.Msg("save") != "Speichern" {
		t.Fatalf("unexpected view %s: %v", second.Lang(), second.Map())
	}
}

func TestSession_LanguageSelectors(t *testing.T) {
	ambient := Ambient{
		ContentLanguage:     "de",
		PageContentLanguage: "fr",
		UserLanguage:        "ja",
		UserVariant:         "EN",
	}
	l, _ := newTestLoader(t, &countingFetcher{}, memory.New(0), ambient)

	tests := []struct {
		name   string
		choose func(s *Session)
		want   string
	}{
		{name: "content", choose: (*Session).UseContentLang, want: "de"},
		{name: "page", choose: (*Session).UsePageLang, want: "fr"},
		{name: "page view prefers variant", choose: (*Session).UsePageViewLang, want: "en"},
		{name: "user", choose: (*Session).UseUserLang, want: "ja"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})
			s.SetDefaultLang("xx")
			tt.choose(s)
			if got := s.DefaultLang(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("temporary selectors", func(t *testing.T) {
		s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})
		if got := s.InContentLang().Messages().Lang(); got != "de" {
			t.Fatalf("expected de, got %q", got)
		}
		if got := s.InPageLang().Messages().Lang(); got != "fr" {
			t.Fatalf("expected fr, got %q", got)
		}
		if got := s.InPageViewLang().Messages().Lang(); got != "en" {
			t.Fatalf("expected en, got %q", got)
		}
		if got := s.InUserLang().Messages().Lang(); got != "ja" {
			t.Fatalf("expected ja, got %q", got)
		}
	})
}

func TestAmbient_PageViewLanguage(t *testing.T) {
	tests := []struct {
		name    string
		ambient Ambient
		want    string
	}{
		{name: "variant", ambient: Ambient{UserVariant: "sr-el", PageContentLanguage: "sr", ContentLanguage: "en"}, want: "sr-el"},
		{name: "page language", ambient: Ambient{PageContentLanguage: "sr", ContentLanguage: "en"}, want: "sr"},
		{name: "content language", ambient: Ambient{ContentLanguage: "en"}, want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ambient.normalized().PageViewLanguage(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAmbient_ContentModelOverride(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{model: "", want: "fr"},
		{model: "wikitext", want: "fr"},
		{model: "css", want: "de"},
		{model: "javascript", want: "de"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			a := Ambient{ContentLanguage: "de", PageContentLanguage: "fr", PageContentModel: tt.model}.normalized()
			if a.PageContentLanguage != tt.want {
				t.Fatalf("expected page language %q, got %q", tt.want, a.PageContentLanguage)
			}
		})
	}
}

func TestSession_UseLangIsDeprecated(t *testing.T) {
	l, log := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{Language: "fr", CacheAll: CacheAll{All: true}})
	s.SetDefaultLang("de")

	s.UseLang("ja")
	if s.DefaultLang() != "fr" {
		t.Fatalf("expected user language, got %q", s.DefaultLang())
	}
	if log.Count("warn", "UseLang is no longer supported, using user language") != 1 {
		t.Fatal("expected a deprecation warning")
	}
}

func TestSession_Overrides(t *testing.T) {
	l, _ := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	l.Overrides().Set("Foo", map[string]string{"title": "Wiki title", "extra": "Extra"})
	l.Overrides().Set("Bar", map[string]string{"save": "Other"})

	s := l.LoadMessages(context.Background(), "Foo", Options{})
	if got := s.Msg("title"); got != "Wiki title" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := s.Msg("extra"); got != "Extra" {
		t.Fatalf("expected added key, got %q", got)
	}
	if got := s.Msg("save"); got != "Save" {
		t.Fatalf("expected other gadget's override to be ignored, got %q", got)
	}
	if msg, _ := s.Catalog().Message("en", "title"); msg != "Title" {
		t.Fatalf("expected catalog to stay untouched, got %q", msg)
	}
}

func TestSession_MissingKeyReportedOnce(t *testing.T) {
	l, log := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{})

	for i := 0; i < 3; i++ {
		if got := s.Msg("nope"); got != "nope" {
			t.Fatalf("expected the key back, got %q", got)
		}
	}
	other := l.LoadMessages(context.Background(), "Foo", Options{})
	other.Msg("nope")

	if got := log.Count("error", "message not found"); got != 1 {
		t.Fatalf("expected one report, got %d", got)
	}
}

func TestSession_MissingLanguageUsesEnglish(t *testing.T) {
	l, log := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})

	tests := []struct {
		lang string
		key  string
		want string
	}{
		{lang: "de-at", key: "title", want: "Title"},
		{lang: "xx", key: "save", want: "Save"},
	}
	for _, tt := range tests {
		s.SetDefaultLang(tt.lang)
		if got := s.Msg(tt.key); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.lang, tt.want, got)
		}
	}
	if got := log.Count("warn", "no messages for language, using English"); got != 2 {
		t.Fatalf("expected two warnings, got %d: %v", got, log.Entries())
	}
}

func TestSession_MissingLanguageDoesNotReportLoops(t *testing.T) {
	catalog := i18n.NewCatalog()
	catalog.Add("en", map[string]string{"a": "A", "b": "B"})
	catalog.Add("de", map[string]string{"x": "X"})
	fetcher := fetch.FetcherFunc(func(context.Context, fetch.Request) (*i18n.Catalog, error) {
		return catalog.Clone(), nil
	})
	l, log := newTestLoader(t, fetcher, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})

	s.SetDefaultLang("bar")
	view := s.Messages()
	if view.Msg("a") != "A" || view.Msg("b") != "B" {
		t.Fatalf("unexpected view %v", view.Map())
	}
	if got := log.Count("warn", "duplicated fallback language found"); got != 0 {
		t.Fatalf("expected no loop warnings for an acyclic chain, got %d", got)
	}
}

func TestSession_DefaultLangUnset(t *testing.T) {
	l, log := newTestLoader(t, &countingFetcher{}, memory.New(0), Ambient{ContentLanguage: "en"})
	s := l.LoadMessages(context.Background(), "Foo", Options{CacheAll: CacheAll{All: true}})

	if got := s.Msg("title"); got != "Title" {
		t.Fatalf("expected en, got %q", got)
	}
	if log.Count("error", "default language is not set") != 1 {
		t.Fatal("expected the unset default language to be reported")
	}
}

func TestSession_LangTag(t *testing.T) {
	l, _ := newTestLoader(t, &countingFetcher{}, memory.New(0), defaultAmbient())
	s := l.LoadMessages(context.Background(), "Foo", Options{Language: "zh-TW", CacheAll: CacheAll{All: true}})

	if s.DefaultLang() != "zh-tw" {
		t.Fatalf("expected catalog code, got %q", s.DefaultLang())
	}
	if s.LangTag() != i18n.Normalize("zh-tw") {
		t.Fatalf("expected %q, got %q", i18n.Normalize("zh-tw"), s.LangTag())
	}
	if s.Messages().LangTag() != "zh-Hant-TW" {
		t.Fatalf("unexpected view tag %q", s.Messages().LangTag())
	}
}

func TestLoader_MissingReportsAreBounded(t *testing.T) {
	log := &testutil.MockLogger{}
	l := New(Config{Fetcher: &countingFetcher{}, MaxMissingReports: 2}, log)
	s := l.LoadMessages(context.Background(), "Foo", Options{})

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		s.Msg(key)
	}
	if got := l.reported.len(); got > 2 {
		t.Fatalf("expected at most 2 remembered reports, got %d", got)
	}
	if got := log.Count("error", "message not found"); got != 5 {
		t.Fatalf("expected every distinct key reported, got %d", got)
	}
}

func TestLoader_ResetForgetsReportsAndCatalogs(t *testing.T) {
	fetcher := &countingFetcher{}
	l, log := newTestLoader(t, fetcher, failingStorage{}, defaultAmbient())

	l.LoadMessages(context.Background(), "Foo", Options{}).Msg("nope")
	if l.memory.Len() != 1 {
		t.Fatalf("expected the catalog in memory, got %d", l.memory.Len())
	}
	l.Reset()
	if l.memory.Len() != 0 {
		t.Fatalf("expected an empty memory cache, got %d", l.memory.Len())
	}
	l.LoadMessages(context.Background(), "Foo", Options{}).Msg("nope")

	if got := log.Count("error", "message not found"); got != 2 {
		t.Fatalf("expected the report to repeat after Reset, got %d", got)
	}
	if fetcher.Calls() != 2 {
		t.Fatalf("expected a refetch after Reset, got %d fetches", fetcher.Calls())
	}
}
