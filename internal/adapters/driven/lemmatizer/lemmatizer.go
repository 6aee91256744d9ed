// Package lemmatizer turns raw text into the lemma sequences the
// vectorizer is trained and queried with.
package lemmatizer

import (
	"bufio"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// Ensure Lemmatizer implements the interface.
var _ driven.Lemmatizer = (*Lemmatizer)(nil)

// Supported languages.
const (
	Russian = "russian"
	English = "english"

	DefaultLanguage = Russian
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

var (
	tagPattern    = regexp.MustCompile(`(?s)<.+?>`)
	entityPattern = regexp.MustCompile(`&\w+?;`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Lemmatizer cleans, tokenises, filters stopwords and stems text with the
// Snowball stemmer of one language.
type Lemmatizer struct {
	language  string
	stopwords map[string]struct{}
}

// New creates a lemmatizer for language. An empty language selects Russian.
func New(language string) (*Lemmatizer, error) {
	if language == "" {
		language = DefaultLanguage
	}
	language = strings.ToLower(language)
	if language != Russian && language != English {
		return nil, fmt.Errorf("%w: lemmatizer language %q", domain.ErrUnsupportedType, language)
	}

	stopwords, err := loadStopwords(language)
	if err != nil {
		return nil, err
	}
	return &Lemmatizer{language: language, stopwords: stopwords}, nil
}

// Language returns the configured language.
func (l *Lemmatizer) Language() string {
	return l.language
}

// Normalize returns the ordered lemmas of text.
func (l *Lemmatizer) Normalize(text string) []string {
	tokens := Tokenize(text)
	lemmas := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, stop := l.stopwords[token]; stop {
			continue
		}
		lemmas = append(lemmas, l.stem(token))
	}
	return lemmas
}

func (l *Lemmatizer) stem(token string) string {
	if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
		return token
	}
	stemmed, err := snowball.Stem(token, l.language, true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// Tokenize lowercases text, strips markup and entities and splits it on
// non-word characters.
func Tokenize(text string) []string {
	cleaned := strings.ToLower(text)
	cleaned = strings.ReplaceAll(cleaned, "ё", "е")
	cleaned = tagPattern.ReplaceAllString(cleaned, " ")
	cleaned = entityPattern.ReplaceAllString(cleaned, "")
	cleaned = nonWord.ReplaceAllString(cleaned, " ")
	return strings.Fields(cleaned)
}

func loadStopwords(language string) (map[string]struct{}, error) {
	f, err := stopwordFiles.Open("stopwords/" + language + ".txt")
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words[w] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return words, nil
}
