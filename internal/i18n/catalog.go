package i18n

import (
	_ "embed"
	"fmt"

	"github.com/startera/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// Catalog holds UI strings per language
type Catalog struct {
	messages map[domain.Language]map[string]string
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return Parse(defaultMessages)
}

// MustLoad parses the embedded catalog and panics on a malformed file
func MustLoad() *Catalog {
	catalog, err := Load()
	if err != nil {
		panic(err)
	}
	return catalog
}

// Parse reads a catalog from YAML keyed by language code
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	catalog := &Catalog{messages: make(map[domain.Language]map[string]string)}
	for code, entries := range raw {
		lang, ok := domain.ParseLanguage(code)
		if !ok {
			return nil, fmt.Errorf("unsupported language %q in message catalog", code)
		}
		catalog.messages[lang] = entries
	}
	return catalog, nil
}

// T returns the string for key in lang, falling back to the default language and then the key
func (c *Catalog) T(lang domain.Language, key string) string {
	if msg, ok := c.messages[lang][key]; ok {
		return msg
	}
	if msg, ok := c.messages[domain.DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// Tf formats the looked-up string with args
func (c *Catalog) Tf(lang domain.Language, key string, args ...interface{}) string {
	return fmt.Sprintf(c.T(lang, key), args...)
}
