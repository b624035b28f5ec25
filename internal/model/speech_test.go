package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncatePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "short", prompt: "hello", want: "hello"},
		{name: "at limit", prompt: strings.Repeat("x", MaxPromptLength), want: strings.Repeat("x", MaxPromptLength)},
		{name: "over limit", prompt: strings.Repeat("x", MaxPromptLength+1), want: strings.Repeat("x", MaxPromptLength)},
		{name: "multi-byte under limit", prompt: strings.Repeat("日", 1500), want: strings.Repeat("日", 1500)},
		{name: "multi-byte over limit", prompt: strings.Repeat("日", 4000), want: strings.Repeat("日", MaxPromptLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePrompt(tt.prompt)

			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestNormalized(t *testing.T) {
	req := &SynthesisRequest{Prompt: strings.Repeat("a", 3100)}

	got := req.Normalized()

	assert.Equal(t, DefaultLang, got.Lang)
	assert.Len(t, got.Prompt, MaxPromptLength)
	assert.Len(t, req.Prompt, 3100, "input request is left untouched")

	kept := (&SynthesisRequest{Prompt: "hola", Lang: "es"}).Normalized()
	assert.Equal(t, "es", kept.Lang)
	assert.Equal(t, "hola", kept.Prompt)
}

func TestValidate(t *testing.T) {
	require.NoError(t, (&SynthesisRequest{Prompt: "hi"}).Validate())
	require.Error(t, (&SynthesisRequest{Lang: "en"}).Validate())
}
