package parser

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

type vocabulary struct {
	MerchantExclusions []string `yaml:"merchant_exclusions"`
}

// merchantExclusions is loaded once from the embedded vocabulary and never
// modified afterwards.
var merchantExclusions = mustLoadVocabulary(vocabularyYAML).MerchantExclusions

func loadVocabulary(data []byte) (vocabulary, error) {
	var v vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return vocabulary{}, fmt.Errorf("unmarshaling vocabulary: %w", err)
	}
	if len(v.MerchantExclusions) == 0 {
		return vocabulary{}, fmt.Errorf("vocabulary has no merchant exclusions")
	}
	return v, nil
}

func mustLoadVocabulary(data []byte) vocabulary {
	v, err := loadVocabulary(data)
	if err != nil {
		panic(err)
	}
	return v
}
