package i18n

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"pt-br", "pt-BR"},
		{"pt_BR", "pt-BR"},
		{"  de-at ", "de-AT"},
		{"sr-cyrl", "sr-Cyrl"},
		{"zh-hans-cn", "zh-Hans-CN"},
		{"be-tarask", "be-tarask"},
		{"en-x-piglatin-ab", "en-x-piglatin-ab"},
		{"EN-X-AB-CDEF", "en-x-ab-cdef"},
		{"zh-tw", "zh-Hant-TW"},
		{"ZH-TW", "zh-Hant-TW"},
		{"simple", "en-simple"},
		{"de-formal", "de-x-formal"},
		{"be-x-old", "be-tarask"},
		{"zh-min-nan", "nan"},
		{"als", "gsw"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_CyclicAliasTerminates(t *testing.T) {
	DeprecatedCodes["cyc-a"] = "cyc-b"
	DeprecatedCodes["cyc-b"] = "cyc-a"
	defer func() {
		delete(DeprecatedCodes, "cyc-a")
		delete(DeprecatedCodes, "cyc-b")
	}()

	if got := Normalize("cyc-a"); got != "cyc-a" && got != "cyc-b" {
		t.Fatalf("unexpected result for cyclic alias: %q", got)
	}
	if got := canonicalCode("cyc-a"); got != "cyc-a" && got != "cyc-b" {
		t.Fatalf("unexpected canonical code for cyclic alias: %q", got)
	}
}

func TestProperty_NormalizeIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	knownCodes := make([]interface{}, 0, len(DeprecatedCodes)+len(NonStandardCodes))
	for code := range DeprecatedCodes {
		knownCodes = append(knownCodes, code)
	}
	for code := range NonStandardCodes {
		knownCodes = append(knownCodes, code)
	}

	genTag := gen.OneGenOf(
		gen.RegexMatch(`[a-zA-Z]{1,8}([-_][a-zA-Z0-9]{1,8}){0,4}`),
		gen.RegexMatch(`[a-z]{2,3}-[xX](-[a-zA-Z]{1,8}){1,3}`),
		gen.OneConstOf(knownCodes...),
		gen.AlphaString(),
	)

	properties.Property("normalize is idempotent", prop.ForAll(
		func(tag string) bool {
			once := Normalize(tag)
			return Normalize(once) == once
		},
		genTag,
	))

	properties.TestingRun(t)
}
