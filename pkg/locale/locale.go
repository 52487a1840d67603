// Package locale loads message catalogs for report UI strings, adapted
// from original_source/localization.py's Localization: a language falls
// back to english for any key it does not override, and an unknown key
// falls back to itself so a missing translation never breaks rendering.
package locale

import (
	"embed"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var catalogFS embed.FS

// SupportedLanguages mirrors original_source/localization.py's
// SUPPORTED_LANGUAGES: code -> display name.
var SupportedLanguages = map[string]string{
	"en": "English",
	"pl": "Polski",
	"de": "Deutsch",
	"fr": "Français",
	"es": "Español",
	"pt": "Português",
}

// Catalog resolves message keys for one language, falling back to english
// and finally to the key itself.
type Catalog struct {
	lang     string
	strings  map[string]string
	fallback map[string]string
}

// Load reads the embedded en.yaml as the fallback catalog, then overlays
// {lang}.yaml if it exists and differs from "en". A missing
// non-English file is not an error: Get simply falls back to english.
func Load(lang string) (*Catalog, error) {
	fallback, err := loadFile("en.yaml")
	if err != nil {
		return nil, err
	}

	strings := fallback
	if lang != "" && lang != "en" {
		overlay, err := loadFile(lang + ".yaml")
		if err == nil {
			strings = make(map[string]string, len(fallback)+len(overlay))
			for k, v := range fallback {
				strings[k] = v
			}
			for k, v := range overlay {
				strings[k] = v
			}
		}
	}

	return &Catalog{lang: lang, strings: strings, fallback: fallback}, nil
}

func loadFile(name string) (map[string]string, error) {
	data, err := catalogFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the message for key in this catalog's language, falling
// back to english and then to key itself if neither catalog has it.
func (c *Catalog) Get(key string) string {
	if v, ok := c.strings[key]; ok {
		return v
	}
	if v, ok := c.fallback[key]; ok {
		return v
	}
	return key
}

// Lang returns the language code this Catalog was loaded for.
func (c *Catalog) Lang() string {
	return c.lang
}
