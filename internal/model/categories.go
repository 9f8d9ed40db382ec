package model

import (
	_ "embed"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

var suggestedCategories []string

func init() {
	var doc struct {
		Suggested []string `yaml:"suggested"`
	}
	if err := yaml.Unmarshal(categoriesYAML, &doc); err != nil {
		panic("model: invalid categories.yaml: " + err.Error())
	}
	suggestedCategories = doc.Suggested
}

// SuggestedCategories returns a copy of the built-in category suggestions.
func SuggestedCategories() []string {
	return append([]string(nil), suggestedCategories...)
}

// MergeCategories keeps the suggested order and appends any stored category
// not already present, sorted. Blank values are dropped.
func MergeCategories(suggested, stored []string) []string {
	seen := make(map[string]struct{}, len(suggested)+len(stored))
	out := make([]string, 0, len(suggested)+len(stored))

	for _, c := range suggested {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	var extra []string
	for _, c := range stored {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		extra = append(extra, c)
	}
	sort.Strings(extra)

	return append(out, extra...)
}
