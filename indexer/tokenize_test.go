package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"punctuation only", " -- ,,; ", []string{}},
		{"split and fold", "Hello, World! hello", []string{"hello", "world"}},
		{"digits", "go1.24 release", []string{"go1", "24", "release"}},
		{"fullwidth", "ＧＯ　ｌａｎｇ", []string{"go", "lang"}},
		{"sharp s", "Straße STRASSE", []string{"strasse"}},
		{"ligature", "ﬁle", []string{"file"}},
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
