package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Company is one monitored company from the roster file.
type Company struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	PRTimes SourceConfig `yaml:"prtimes"`
	HPNews  HPNewsConfig `yaml:"hp_news"`
}

// SourceConfig enables one scraping source for a company. A nil Enabled
// means enabled whenever a URL is present.
type SourceConfig struct {
	Enabled *bool  `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// IsEnabled reports whether this source should be scraped.
func (c SourceConfig) IsEnabled() bool {
	if c.URL == "" {
		return false
	}
	return c.Enabled == nil || *c.Enabled
}

// HPNewsConfig configures homepage news scraping, optionally with
// site-specific CSS selectors.
type HPNewsConfig struct {
	SourceConfig `yaml:",inline"`
	Parser       ParserConfig `yaml:"parser"`
}

// ParserConfig holds the per-site CSS selectors. Blank fields fall back to
// the common selector chains.
type ParserConfig struct {
	List    string `yaml:"list_selector"`
	Item    string `yaml:"item_selector"`
	Title   string `yaml:"title_selector"`
	Date    string `yaml:"date_selector"`
	Content string `yaml:"content_selector"`
	Image   string `yaml:"image_selector"`
}

type companiesFile struct {
	Companies []Company `yaml:"companies"`
}

// LoadCompanies reads and validates the company roster.
func LoadCompanies(path string) ([]Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read companies file: %w", err)
	}

	var f companiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse companies file: %w", err)
	}

	seen := make(map[string]bool, len(f.Companies))
	for i, c := range f.Companies {
		if c.ID == "" {
			return nil, fmt.Errorf("config: company %d: missing id", i)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("config: company %q: missing name", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("config: duplicate company id %q", c.ID)
		}
		seen[c.ID] = true
	}

	return f.Companies, nil
}
