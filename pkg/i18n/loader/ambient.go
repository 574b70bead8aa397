package loader

import (
	"strings"

	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/i18n"
)

// wikitextModel is the only content model whose pages keep their own language.
const wikitextModel = "wikitext"

// Ambient is the page context a loader serves: the language signals the
// host page exposes and its debug flag.
type Ambient struct {
	// Debug disables the persistent cache, as noCache does per call.
	Debug               bool
	ContentLanguage     string
	PageContentLanguage string
	// PageContentModel forces the page language to the content language
	// unless it is empty or wikitext.
	PageContentModel string
	UserLanguage     string
	UserVariant      string
}

// AmbientFromConfig builds the ambient context from configuration.
func AmbientFromConfig(cfg config.AmbientConfig, debug bool) Ambient {
	return Ambient{
		Debug:               debug,
		ContentLanguage:     cfg.ContentLanguage,
		PageContentLanguage: cfg.PageContentLanguage,
		PageContentModel:    cfg.PageContentModel,
		UserLanguage:        cfg.UserLanguage,
		UserVariant:         cfg.UserVariant,
	}
}

// normalized returns the ambient languages as catalog codes with the content
// model override applied.
func (a Ambient) normalized() Ambient {
	a.ContentLanguage = i18n.CatalogCode(a.ContentLanguage)
	a.PageContentLanguage = i18n.CatalogCode(a.PageContentLanguage)
	a.UserLanguage = i18n.CatalogCode(a.UserLanguage)
	a.UserVariant = i18n.CatalogCode(a.UserVariant)

	model := strings.ToLower(strings.TrimSpace(a.PageContentModel))
	if model != "" && model != wikitextModel {
		a.PageContentLanguage = a.ContentLanguage
	}
	return a
}

// PageViewLanguage is the user's language variant, else the page language,
// else the content language.
func (a Ambient) PageViewLanguage() string {
	switch {
	case a.UserVariant != "":
		return a.UserVariant
	case a.PageContentLanguage != "":
		return a.PageContentLanguage
	default:
		return a.ContentLanguage
	}
}
