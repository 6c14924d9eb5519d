package textextract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"no pages", nil, ""},
		{"single page", []string{"hello"}, "hello\n"},
		{"page order kept", []string{"one", "two", "three"}, "one\ntwo\nthree\n"},
		{"empty pages skipped", []string{"", "two", "", "four", ""}, "two\nfour\n"},
		{"all empty", []string{"", ""}, ""},
		{"whitespace is text", []string{" ", "x"}, " \nx\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinPages(tt.pages))
		})
	}
}

func TestPDFRejectsGarbage(t *testing.T) {
	data := []byte("this is not a pdf")
	result, err := PDF(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestPDFJoinsPagesInOrderSkippingEmpty(t *testing.T) {
	data := buildPDF(t, "Hello", "", "World")

	result, err := PDF(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, "\nHello\n\nWorld\n", result.Content)
}

func TestPDFWithOnlyEmptyPages(t *testing.T) {
	data := buildPDF(t, "", "")

	result, err := PDF(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Empty(t, result.Content)
}
