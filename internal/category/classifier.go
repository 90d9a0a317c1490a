package category

import (
	"math"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	emptyInputConfidence = 0.0
	noMatchConfidence    = 0.3
)

// Result is a category suggestion. MatchedKeyword is nil when no keyword
// matched and the category is the Miscellaneous fallback.
type Result struct {
	Category       Category `json:"category"`
	Confidence     float64  `json:"confidence"`
	MatchedKeyword *string  `json:"matched_keyword,omitempty"`
}

type keyword struct {
	text   string
	folded string
	length int
}

type compiledSet struct {
	category Category
	keywords []keyword
}

// Classifier matches text against a keyword table. It is immutable and safe
// for concurrent use.
type Classifier struct {
	sets []compiledSet
}

// NewClassifier prepares table for matching.
func NewClassifier(table KeywordTable) *Classifier {
	lower := cases.Lower(language.Und)
	sets := make([]compiledSet, 0, len(table.sets))
	for _, set := range table.sets {
		compiled := compiledSet{category: set.Category, keywords: make([]keyword, 0, len(set.Keywords))}
		for _, kw := range set.Keywords {
			compiled.keywords = append(compiled.keywords, keyword{
				text:   kw,
				folded: lower.String(kw),
				length: uniseg.GraphemeClusterCount(kw),
			})
		}
		sets = append(sets, compiled)
	}
	return &Classifier{sets: sets}
}

var defaultClassifier = NewClassifier(defaultTable)

// Default returns the classifier built from the built-in keyword table.
func Default() *Classifier {
	return defaultClassifier
}

// Classify suggests a category using the default classifier.
func Classify(storeName, rawText *string) Result {
	return defaultClassifier.Classify(storeName, rawText)
}

// SuggestCategory returns only the category of Classify.
func SuggestCategory(storeName, rawText *string) Category {
	return defaultClassifier.SuggestCategory(storeName, rawText)
}

// Classify looks for the first keyword, in table order, contained in the
// store name and raw text. Longer keywords give higher confidence.
func (c *Classifier) Classify(storeName, rawText *string) Result {
	parts := make([]string, 0, 2)
	for _, s := range []*string{storeName, rawText} {
		if s != nil {
			parts = append(parts, *s)
		}
	}
	// cases.Caser keeps state, so each call gets its own.
	combined := cases.Lower(language.Und).String(strings.Join(parts, " "))
	if combined == "" {
		return Result{Category: Miscellaneous, Confidence: emptyInputConfidence}
	}

	for _, set := range c.sets {
		for _, kw := range set.keywords {
			if strings.Contains(combined, kw.folded) {
				matched := kw.text
				return Result{
					Category:       set.category,
					Confidence:     keywordConfidence(kw.length),
					MatchedKeyword: &matched,
				}
			}
		}
	}

	return Result{Category: Miscellaneous, Confidence: noMatchConfidence}
}

// SuggestCategory returns only the category of Classify.
func (c *Classifier) SuggestCategory(storeName, rawText *string) Category {
	return c.Classify(storeName, rawText).Category
}

func keywordConfidence(length int) float64 {
	return math.Min(1.0, float64(length)/10.0+0.5)
}
