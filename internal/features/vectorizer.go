package features

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Vectorizer projects normalized free text onto a fixed set of named
// numeric features
type Vectorizer interface {
	FeatureNames() []string
	Transform(text string) []float64
}

// DefaultVocabulary is the motorcycle-model token set the published
// feature list expects
var DefaultVocabulary = []string{
	"115", "125", "125i", "150", "155", "175", "barako", "black", "click",
	"es", "fazzio", "fi", "honda", "i", "kawasaki", "mio", "raider", "repo",
	"smash", "suzuki", "tmx", "yamaha",
}

// BagOfWords counts whitespace-separated tokens against a fixed vocabulary
type BagOfWords struct {
	vocabulary []string
	index      map[string]int
}

// NewBagOfWords builds a vectorizer over vocabulary. Repeated tokens are
// ignored.
func NewBagOfWords(vocabulary []string) *BagOfWords {
	b := &BagOfWords{index: make(map[string]int, len(vocabulary))}
	for _, token := range vocabulary {
		if _, ok := b.index[token]; ok {
			continue
		}
		b.index[token] = len(b.vocabulary)
		b.vocabulary = append(b.vocabulary, token)
	}
	return b
}

// DefaultBagOfWords is NewBagOfWords over DefaultVocabulary
func DefaultBagOfWords() *BagOfWords {
	return NewBagOfWords(DefaultVocabulary)
}

type vocabularyFile struct {
	Vocabulary []string `yaml:"vocabulary"`
}

// LoadBagOfWords reads a YAML vocabulary artifact of the form
// "vocabulary: [token, ...]"
func LoadBagOfWords(path string) (*BagOfWords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	var f vocabularyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing vocabulary %s: %w", path, err)
	}
	if len(f.Vocabulary) == 0 {
		return nil, fmt.Errorf("vocabulary %s is empty", path)
	}
	return NewBagOfWords(f.Vocabulary), nil
}

// FeatureNames returns the vocabulary in column order
func (b *BagOfWords) FeatureNames() []string {
	names := make([]string, len(b.vocabulary))
	copy(names, b.vocabulary)
	return names
}

// Transform counts vocabulary tokens in text
func (b *BagOfWords) Transform(text string) []float64 {
	counts := make([]float64, len(b.vocabulary))
	for _, token := range strings.Fields(text) {
		if i, ok := b.index[token]; ok {
			counts[i]++
		}
	}
	return counts
}
