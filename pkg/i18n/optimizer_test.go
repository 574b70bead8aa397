package i18n

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func testCatalog() *Catalog {
	return catalogOf(map[string]map[string]string{
		"en":    {"title": "Title", "body": "Body", "months": "Jan,Feb"},
		"fr":    {"title": "Titre", "months": "janv,févr"},
		"de":    {"title": "Titel", "body": "Text", "months": "Jan,Feb"},
		"de-at": {"body": "Textl"},
		"ja":    {"title": "タイトル", "months": "1月,2月"},
	})
}

func TestOptimizer_KeepsRequiredLanguagesOnly(t *testing.T) {
	o := NewOptimizer(NewResolver(DefaultFallbacks(), nil), nil)

	got := o.Optimize("Foo", testCatalog(), OptimizeOptions{Language: "de-at", ContentLanguage: "fr"})

	if want := []string{"de-at", "fr"}; !reflect.DeepEqual(got.Languages(), want) {
		t.Fatalf("languages = %v, want %v", got.Languages(), want)
	}
	marker, ok := got.Optimized()
	if !ok || !reflect.DeepEqual(marker, []string{"de-at", "fr"}) {
		t.Fatalf("marker = %v, %v", marker, ok)
	}

	wantDeAt := map[string]string{"title": "Titel", "body": "Textl", "months": "Jan,Feb"}
	if !reflect.DeepEqual(got.Language("de-at"), wantDeAt) {
		t.Fatalf("de-at = %v, want %v", got.Language("de-at"), wantDeAt)
	}
	wantFr := map[string]string{"title": "Titre", "body": "Body", "months": "janv,févr"}
	if !reflect.DeepEqual(got.Language("fr"), wantFr) {
		t.Fatalf("fr = %v, want %v", got.Language("fr"), wantFr)
	}
}

func TestOptimizer_PreservesPreviousLanguages(t *testing.T) {
	o := NewOptimizer(NewResolver(DefaultFallbacks(), nil), nil)

	got := o.Optimize("Foo", testCatalog(), OptimizeOptions{
		Language:        "fr",
		ContentLanguage: "fr",
		Previous:        []string{"ja", "fr"},
	})

	marker, _ := got.Optimized()
	if want := []string{"fr", "ja"}; !reflect.DeepEqual(marker, want) {
		t.Fatalf("marker = %v, want %v", marker, want)
	}
	if msg, _ := got.Message("ja", "body"); msg != "Body" {
		t.Fatalf("expected ja body to resolve to English, got %q", msg)
	}
}

func TestOptimizer_CacheAllKeysCoverEverySourceLanguage(t *testing.T) {
	o := NewOptimizer(NewResolver(DefaultFallbacks(), nil), nil)

	got := o.Optimize("Foo", testCatalog(), OptimizeOptions{
		Language:        "fr",
		ContentLanguage: "en",
		CacheAllKeys:    []string{"months"},
	})

	for _, lang := range []string{"en", "fr", "de", "de-at", "ja"} {
		if !got.HasLanguage(lang) {
			t.Fatalf("expected %s to be kept for cacheAll keys", lang)
		}
	}
	if msg, _ := got.Message("ja", "months"); msg != "1月,2月" {
		t.Fatalf("ja months = %q", msg)
	}
	if msg, _ := got.Message("de-at", "months"); msg != "Jan,Feb" {
		t.Fatalf("de-at months = %q", msg)
	}
	if _, ok := got.Message("ja", "title"); ok {
		t.Fatal("non-required language should only carry cacheAll keys")
	}
	marker, _ := got.Optimized()
	if want := []string{"fr", "en"}; !reflect.DeepEqual(marker, want) {
		t.Fatalf("marker = %v, want %v", marker, want)
	}
}

func TestOptimizer_SkipsCatalogWithoutEnglish(t *testing.T) {
	o := NewOptimizer(NewResolver(DefaultFallbacks(), nil), nil)
	source := catalogOf(map[string]map[string]string{"fr": {"k": "F"}})

	if got := o.Optimize("Foo", source, OptimizeOptions{Language: "de"}); got != source {
		t.Fatal("expected the source catalog back unchanged")
	}
	if _, ok := source.Optimized(); ok {
		t.Fatal("source must not gain a marker")
	}
}

func TestOptimizer_DoesNotMutateSource(t *testing.T) {
	o := NewOptimizer(NewResolver(DefaultFallbacks(), nil), nil)
	source := testCatalog()
	before, _ := source.MarshalJSON()

	o.Optimize("Foo", source, OptimizeOptions{Language: "fr", ContentLanguage: "de", CacheAllKeys: []string{"title"}})

	after, _ := source.MarshalJSON()
	if string(before) != string(after) {
		t.Fatalf("source changed: %s -> %s", before, after)
	}
}

func TestProperty_OptimizedKeysAreResolvableSubset(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	langs := []interface{}{"en", "fr", "de", "de-at", "pt", "pt-br", "zh", "zh-hant", "ja"}
	genMessages := gen.MapOf(gen.OneConstOf("a", "b", "c", "d", "e"), gen.OneConstOf("", "x", "y"))
	genCatalog := gen.MapOf(gen.OneConstOf(langs...), genMessages)

	resolver := NewResolver(DefaultFallbacks(), nil)
	o := NewOptimizer(resolver, nil)

	properties.Property("optimized keys are exactly the resolvable en keys", prop.ForAll(
		func(raw map[string]map[string]string, lang, content string) bool {
			source := catalogOf(raw)
			got := o.Optimize("Prop", source, OptimizeOptions{Language: lang, ContentLanguage: content})
			enKeys := source.Keys(BaselineLanguage)
			if len(enKeys) == 0 {
				return got == source
			}
			for _, retained := range got.Languages() {
				if retained != lang && retained != content {
					return false
				}
				for _, key := range got.Keys(retained) {
					if !contains(enKeys, key) {
						return false
					}
				}
				for _, key := range enKeys {
					want, wantOK := resolver.Resolve(source, key, retained, nil)
					msg, ok := got.Message(retained, key)
					if ok != wantOK || msg != want {
						return false
					}
				}
			}
			return true
		},
		genCatalog,
		gen.OneConstOf(langs...),
		gen.OneConstOf(langs...),
	))

	properties.TestingRun(t)
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
