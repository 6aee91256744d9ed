package lemmatizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

func TestNew(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	assert.Equal(t, Russian, l.Language())

	l, err = New("English")
	require.NoError(t, err)
	assert.Equal(t, English, l.Language())

	_, err = New("klingon")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercase", "Hello World", []string{"hello", "world"}},
		{"tags", "<p>one</p><br/>two", []string{"one", "two"}},
		{"multiline tag", "a<div\nclass=\"x\">b", []string{"a", "b"}},
		{"entities", "fish&nbsp;chips", []string{"fishchips"}},
		{"punctuation", "well, well... done!", []string{"well", "well", "done"}},
		{"digits kept", "order 42-b", []string{"order", "42", "b"}},
		{"cyrillic", "Ёлка, ЁЖ!", []string{"елка", "еж"}},
		{"empty", "  \n\t ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Russian(t *testing.T) {
	l, err := New(Russian)
	require.NoError(t, err)

	lemmas := l.Normalize("Как оплатить заказ и где мой заказ?")
	assert.NotContains(t, lemmas, "как")
	assert.NotContains(t, lemmas, "и")
	assert.NotContains(t, lemmas, "где")
	assert.NotContains(t, lemmas, "мой")
	require.Len(t, lemmas, 3)
	assert.Equal(t, lemmas[1], lemmas[2], "inflections of one word share a stem")
}

func TestNormalize_InflectionsShareStem(t *testing.T) {
	l, err := New(Russian)
	require.NoError(t, err)

	a := l.Normalize("доставка")
	b := l.Normalize("доставки")
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a, b)
}

func TestNormalize_English(t *testing.T) {
	l, err := New(English)
	require.NoError(t, err)

	lemmas := l.Normalize("The runners were running 3 races")
	assert.Equal(t, []string{"runner", "run", "3", "race"}, lemmas)
}

func TestNormalize_OnlyStopwords(t *testing.T) {
	l, err := New(English)
	require.NoError(t, err)
	assert.Empty(t, l.Normalize("the and of"))
}
