package service

import (
	"context"

	"github.com/deppfellow/speech-relay/internal/middleware"
	"github.com/deppfellow/speech-relay/internal/model"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/pkg/errors"
)

// SpeechService turns prompts into audio through the configured synthesizer.
type SpeechService struct {
	server      *server.Server
	synthesizer model.Synthesizer
}

// NewSpeechService creates the speech service from the server container.
func NewSpeechService(s *server.Server) (*SpeechService, error) {
	if s.Synthesizer == nil {
		return nil, errors.New("speech service requires a synthesizer")
	}

	return &SpeechService{
		server:      s,
		synthesizer: s.Synthesizer,
	}, nil
}

// Generate normalizes req and makes exactly one upstream call.
//
// The prompt is cut to model.MaxPromptLength characters and the language
// defaults to model.DefaultLang. Upstream errors are returned as they are.
func (s *SpeechService) Generate(ctx context.Context, req *model.SynthesisRequest) (*model.SynthesisResult, error) {
	normalized := req.Normalized()

	middleware.LoggerFromContext(ctx).Info().
		Int("prompt_chars", len([]rune(normalized.Prompt))).
		Bool("truncated", normalized.Prompt != req.Prompt).
		Str("lang", normalized.Lang).
		Msg("generating speech")

	result, err := s.synthesizer.Synthesize(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, errors.New("synthesizer returned no result")
	}

	return result, nil
}
