package response

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog resolves message codes to localized text.
type Catalog struct {
	tags     []language.Tag
	matcher  language.Matcher
	messages []map[string]string
}

// LoadCatalog reads every embedded locale file. English is the default
// and always sits first.
func LoadCatalog() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	c := &Catalog{}
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", entry.Name(), err)
		}

		raw, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", entry.Name(), err)
		}
		var msgs map[string]string
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", entry.Name(), err)
		}

		if name == "en" {
			c.tags = append([]language.Tag{tag}, c.tags...)
			c.messages = append([]map[string]string{msgs}, c.messages...)
		} else {
			c.tags = append(c.tags, tag)
			c.messages = append(c.messages, msgs)
		}
	}
	if len(c.tags) == 0 || c.tags[0].String() != "en" {
		return nil, fmt.Errorf("locales: en.json is required")
	}

	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

var defaultCatalog = mustLoadCatalog()

func mustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// Supported returns the locale tags in the catalog.
func (c *Catalog) Supported() []language.Tag {
	tags := make([]language.Tag, len(c.tags))
	copy(tags, c.tags)
	return tags
}

// Message returns the text for code in the best locale for acceptLanguage.
// It falls back to English, then to the reason phrase for status.
func (c *Catalog) Message(acceptLanguage, code string, status int) string {
	idx := c.match(acceptLanguage)
	if msg, ok := c.messages[idx][code]; ok {
		return msg
	}
	if msg, ok := c.messages[0][code]; ok {
		return msg
	}
	return http.StatusText(status)
}

func (c *Catalog) match(acceptLanguage string) int {
	accept := strings.TrimSpace(acceptLanguage)
	if accept == "" {
		return 0
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return 0
	}
	_, idx, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return 0
	}
	return idx
}
