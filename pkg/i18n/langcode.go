package i18n

import "strings"

// maxAliasDepth bounds how many deprecated-code hops Normalize and the
// resolver follow before giving up on the alias chain.
const maxAliasDepth = 8

// DeprecatedCodes maps language codes that older MediaWiki releases used to
// their current replacements. Translations should not be stored under these.
var DeprecatedCodes = map[string]string{
	"als":          "gsw",       // T25215
	"bat-smg":      "sgs",       // T27522
	"be-x-old":     "be-tarask", // T11823
	"fiu-vro":      "vro",       // T31186
	"roa-rup":      "rup",       // T17988
	"zh-classical": "lzh",       // T30443
	"zh-min-nan":   "nan",       // T30442
	"zh-yue":       "yue",       // T30441
}

// NonStandardCodes maps MediaWiki-internal codes to their BCP 47 form.
var NonStandardCodes = map[string]string{
	"cbk-zam":     "cbk", // T124657
	"crh-ro":      "crh-Latn-RO",
	"de-formal":   "de-x-formal",
	"eml":         "egl", // T36217
	"en-rtl":      "en-x-rtl",
	"es-formal":   "es-x-formal",
	"hu-formal":   "hu-x-formal",
	"kk-cn":       "kk-Arab-CN",
	"kk-tr":       "kk-Latn-TR",
	"map-bms":     "jv-x-bms", // T125073
	"mo":          "ro-Cyrl-MD",
	"nrm":         "nrf", // T25216
	"nl-informal": "nl-x-informal",
	"roa-tara":    "nap-x-tara",
	"simple":      "en-simple",
	"sr-ec":       "sr-Cyrl", // T117845
	"sr-el":       "sr-Latn", // T117845
	"zh-cn":       "zh-Hans-CN",
	"zh-sg":       "zh-Hans-SG",
	"zh-my":       "zh-Hans-MY",
	"zh-tw":       "zh-Hant-TW",
	"zh-hk":       "zh-Hant-HK",
	"zh-mo":       "zh-Hant-MO",
}

// Normalize converts a language code into its BCP 47 spelling.
//
// Non-standard codes are substituted directly, deprecated codes are replaced
// and normalized again, and everything else is re-cased segment by segment:
// the first segment and private-use segments (those after an "x") are lower
// case, two-letter regions are upper case and four-letter scripts are title
// case. Lookups in the substitution tables are case-insensitive, which keeps
// Normalize idempotent.
func Normalize(tag string) string {
	return normalizeDepth(tag, 0)
}

func normalizeDepth(tag string, depth int) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return ""
	}

	lookup := strings.ToLower(tag)
	if mapped, ok := NonStandardCodes[lookup]; ok {
		return mapped
	}
	if replacement, ok := DeprecatedCodes[lookup]; ok && depth < maxAliasDepth {
		return normalizeDepth(replacement, depth+1)
	}

	segments := strings.Split(tag, "-")
	private := false
	for i, segment := range segments {
		switch {
		case private || i == 0:
			segments[i] = strings.ToLower(segment)
		case len(segment) == 2:
			segments[i] = strings.ToUpper(segment)
		case len(segment) == 4:
			segments[i] = strings.ToUpper(segment[:1]) + strings.ToLower(segment[1:])
		default:
			segments[i] = strings.ToLower(segment)
		}
		if strings.EqualFold(segment, "x") {
			private = true
		}
	}
	return strings.Join(segments, "-")
}

// canonicalCode follows the deprecated-code table to the current code.
func canonicalCode(lang string) string {
	for i := 0; i < maxAliasDepth; i++ {
		replacement, ok := DeprecatedCodes[lang]
		if !ok {
			return lang
		}
		lang = replacement
	}
	return lang
}
