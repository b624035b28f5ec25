// Package model holds the request-scoped types exchanged between the
// handler, service and upstream layers.
package model

import (
	"context"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxPromptLength is the number of characters forwarded upstream.
	// Longer prompts are cut silently.
	MaxPromptLength = 3000

	// DefaultLang is used when the caller sends no language.
	DefaultLang = "en"
)

var validate = validator.New()

// SynthesisRequest is the inbound request body.
type SynthesisRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Lang   string `json:"lang,omitempty"`
}

// Validate enforces the struct tags.
func (r *SynthesisRequest) Validate() error {
	return validate.Struct(r)
}

// Normalized returns the request as it is sent upstream: the prompt cut to
// MaxPromptLength characters and the language defaulted to DefaultLang.
func (r *SynthesisRequest) Normalized() *SynthesisRequest {
	lang := r.Lang
	if lang == "" {
		lang = DefaultLang
	}

	return &SynthesisRequest{
		Prompt: TruncatePrompt(r.Prompt),
		Lang:   lang,
	}
}

// TruncatePrompt keeps the first MaxPromptLength characters of prompt.
// Characters are Unicode code points, so a multi-byte character is never split.
func TruncatePrompt(prompt string) string {
	// Fast path: a string this short in bytes cannot exceed the limit in runes.
	if len(prompt) <= MaxPromptLength {
		return prompt
	}

	count := 0
	for i := range prompt {
		if count == MaxPromptLength {
			return prompt[:i]
		}
		count++
	}

	return prompt
}

// SynthesisResult is the upstream answer.
type SynthesisResult struct {
	// Audio is the base64-encoded payload, passed through untouched.
	Audio string `json:"audio"`
}

// Synthesizer turns a normalized request into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *SynthesisRequest) (*SynthesisResult, error)
}
