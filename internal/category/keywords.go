package category

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyTable        = errors.New("keyword table is empty")
	ErrEmptyKeyword      = errors.New("empty keyword")
	ErrDuplicateCategory = errors.New("category listed more than once")
)

//go:embed keywords.yaml
var defaultKeywordsYAML string

// KeywordSet is the ordered list of keywords that select one category.
type KeywordSet struct {
	Category Category `yaml:"category" json:"category"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// KeywordTable maps categories to keywords in a fixed order. A table cannot
// be changed once loaded.
type KeywordTable struct {
	sets []KeywordSet
}

type keywordFile struct {
	Categories []KeywordSet `yaml:"categories"`
}

var defaultTable = mustLoadKeywordTable(defaultKeywordsYAML)

// DefaultTable returns the built-in keyword table.
func DefaultTable() KeywordTable {
	return defaultTable
}

// LoadKeywordTable reads a YAML keyword table:
//
//	categories:
//	  - category: food
//	    keywords: ["ramen", "sushi"]
func LoadKeywordTable(r io.Reader) (KeywordTable, error) {
	var file keywordFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return KeywordTable{}, ErrEmptyTable
		}
		return KeywordTable{}, fmt.Errorf("decoding keyword table: %w", err)
	}
	return NewKeywordTable(file.Categories)
}

// NewKeywordTable validates sets and returns a table holding a copy of them.
func NewKeywordTable(sets []KeywordSet) (KeywordTable, error) {
	if len(sets) == 0 {
		return KeywordTable{}, ErrEmptyTable
	}

	seen := make(map[Category]bool, len(sets))
	copied := make([]KeywordSet, 0, len(sets))
	for _, set := range sets {
		if !set.Category.Valid() {
			return KeywordTable{}, fmt.Errorf("%w: %q", ErrUnknownCategory, set.Category)
		}
		if seen[set.Category] {
			return KeywordTable{}, fmt.Errorf("%w: %s", ErrDuplicateCategory, set.Category)
		}
		seen[set.Category] = true

		keywords := make([]string, 0, len(set.Keywords))
		for _, kw := range set.Keywords {
			if strings.TrimSpace(kw) == "" {
				return KeywordTable{}, fmt.Errorf("%w in category %s", ErrEmptyKeyword, set.Category)
			}
			keywords = append(keywords, kw)
		}
		copied = append(copied, KeywordSet{Category: set.Category, Keywords: keywords})
	}

	return KeywordTable{sets: copied}, nil
}

// Sets returns a copy of the table's entries in match order.
func (t KeywordTable) Sets() []KeywordSet {
	out := make([]KeywordSet, len(t.sets))
	for i, set := range t.sets {
		out[i] = KeywordSet{
			Category: set.Category,
			Keywords: append([]string(nil), set.Keywords...),
		}
	}
	return out
}

func mustLoadKeywordTable(data string) KeywordTable {
	table, err := LoadKeywordTable(strings.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("loading built-in keyword table: %v", err))
	}
	return table
}
