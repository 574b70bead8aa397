package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// BaselineLanguage is the language every catalog must carry and the terminal
// fallback of every resolution.
const BaselineLanguage = "en"

// optimizedMarker is the reserved top-level key recording the languages a
// catalog was optimized down to.
const optimizedMarker = "_isOptimised"

// ErrMissingBaseline is returned by Validate for a catalog without English messages.
var ErrMissingBaseline = errors.New("catalog has no en messages")

// Catalog stores the messages of one gadget, by language code and message key.
//
// A Catalog produced by the optimizer records the languages it was reduced to;
// see Optimized.
type Catalog struct {
	messages  map[string]map[string]string
	optimized []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: map[string]map[string]string{}}
}

// Add inserts messages for a language, overwriting existing keys.
func (c *Catalog) Add(lang string, entries map[string]string) {
	lang = CatalogCode(lang)
	if lang == "" || lang == CatalogCode(optimizedMarker) {
		return
	}
	if c.messages == nil {
		c.messages = map[string]map[string]string{}
	}
	if c.messages[lang] == nil {
		c.messages[lang] = make(map[string]string, len(entries))
	}
	for key, value := range entries {
		if strings.TrimSpace(key) == "" {
			continue
		}
		c.messages[lang][key] = value
	}
}

// Set stores a single message.
func (c *Catalog) Set(lang, key, value string) {
	c.Add(lang, map[string]string{key: value})
}

// Message returns the message stored for lang and key. Empty messages count as missing.
func (c *Catalog) Message(lang, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	value := c.messages[lang][key]
	return value, value != ""
}

// HasLanguage reports whether the catalog carries a message map for lang.
func (c *Catalog) HasLanguage(lang string) bool {
	if c == nil {
		return false
	}
	_, ok := c.messages[lang]
	return ok
}

// Language returns a copy of the messages for lang, or nil.
func (c *Catalog) Language(lang string) map[string]string {
	if c == nil {
		return nil
	}
	entries, ok := c.messages[lang]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(entries))
	for key, value := range entries {
		out[key] = value
	}
	return out
}

// Languages returns the catalog's language codes in sorted order.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Keys returns the message keys stored for lang in sorted order.
func (c *Catalog) Keys(lang string) []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.messages[lang]))
	for key := range c.messages[lang] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of languages in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.messages)
}

// IsEmpty reports whether the catalog has no languages.
func (c *Catalog) IsEmpty() bool { return c.Len() == 0 }

// Optimized returns the languages the catalog was optimized for and whether it
// carries the marker at all.
func (c *Catalog) Optimized() ([]string, bool) {
	if c == nil || c.optimized == nil {
		return nil, false
	}
	return append([]string(nil), c.optimized...), true
}

// HasOptimized reports whether lang is listed in the optimized marker.
func (c *Catalog) HasOptimized(lang string) bool {
	if c == nil {
		return false
	}
	for _, candidate := range c.optimized {
		if candidate == lang {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	out := NewCatalog()
	if c == nil {
		return out
	}
	for lang, entries := range c.messages {
		copied := make(map[string]string, len(entries))
		for key, value := range entries {
			copied[key] = value
		}
		out.messages[lang] = copied
	}
	if c.optimized != nil {
		out.optimized = append([]string{}, c.optimized...)
	}
	return out
}

// MarshalJSON encodes the catalog in the i18n.json wire format, with the
// optimized marker as an extra top-level array.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, c.Len()+1)
	if c != nil {
		for lang, entries := range c.messages {
			payload[lang] = entries
		}
		if c.optimized != nil {
			payload[optimizedMarker] = c.optimized
		}
	}
	return json.Marshal(payload)
}

// UnmarshalJSON decodes the i18n.json wire format. Nested message objects are
// flattened into dotted keys.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	if payload == nil {
		return errors.New("decode catalog: not an object")
	}

	decoded := NewCatalog()
	for lang, raw := range payload {
		if lang == optimizedMarker {
			var langs []string
			if err := json.Unmarshal(raw, &langs); err != nil {
				return fmt.Errorf("decode catalog marker: %w", err)
			}
			if langs == nil {
				langs = []string{}
			}
			decoded.optimized = langs
			continue
		}
		var entries map[string]any
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("decode catalog language %q: %w", lang, err)
		}
		decoded.Add(lang, flattenCatalog(entries, ""))
	}
	*c = *decoded
	return nil
}

// DecodeCatalog parses a JSON catalog.
func DecodeCatalog(data []byte) (*Catalog, error) {
	catalog := NewCatalog()
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate rejects catalogs that cannot be served: the en baseline is mandatory.
func Validate(c *Catalog) error {
	if c == nil || len(c.messages[BaselineLanguage]) == 0 {
		return ErrMissingBaseline
	}
	return nil
}

// LoadCatalogFile loads a whole catalog from a .json, .yaml or .yml file whose
// top-level keys are language codes.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read i18n catalog %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		catalog, err := DecodeCatalog(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return catalog, nil
	case ".yaml", ".yml":
		var payload map[string]map[string]any
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode i18n yaml catalog %s: %w", path, err)
		}
		catalog := NewCatalog()
		for lang, entries := range payload {
			catalog.Add(lang, flattenCatalog(entries, ""))
		}
		return catalog, nil
	default:
		return nil, fmt.Errorf("unsupported i18n catalog format %q", ext)
	}
}

// LoadCatalogDir assembles a catalog from per-language files named after
// their language code (en.json, pt-br.yaml, ...).
func LoadCatalogDir(path string) (*Catalog, error) {
	catalog := NewCatalog()
	if strings.TrimSpace(path) == "" {
		return catalog, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read i18n catalog dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filePath := filepath.Join(path, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		lang := strings.TrimSpace(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if lang == "" {
			continue
		}
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read i18n catalog %s: %w", filePath, err)
		}
		messages, err := DecodeLanguage(ext, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		catalog.Add(lang, messages)
	}
	return catalog, nil
}

// DecodeLanguage decodes the messages of a single language file. ext selects
// the format: ".json", ".yaml" or ".yml". Nested objects are flattened into
// dotted keys.
func DecodeLanguage(ext string, raw []byte) (map[string]string, error) {
	var payload map[string]interface{}
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode i18n json messages: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode i18n yaml messages: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported i18n catalog format %q", ext)
	}
	return flattenCatalog(payload, ""), nil
}

func flattenCatalog(payload map[string]interface{}, prefix string) map[string]string {
	out := map[string]string{}
	for key, value := range payload {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		switch node := value.(type) {
		case map[string]interface{}:
			for k, v := range flattenCatalog(node, fullKey) {
				out[k] = v
			}
		case string:
			out[fullKey] = node
		}
	}
	return out
}

// CatalogCode cleans a language code for use as a catalog key. Catalogs use
// lower-case MediaWiki codes, which is also what the fallback graph is keyed by.
// Use Normalize for the BCP 47 spelling.
func CatalogCode(lang string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}
