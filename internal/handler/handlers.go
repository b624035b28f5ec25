package handler

import (
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/deppfellow/speech-relay/internal/service"
)

// Handlers is a container that groups all HTTP handlers,
// so router setup receives one object instead of many.
type Handlers struct {
	Speech *SpeechHandler // Speech serves the text-to-speech endpoint.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Speech: NewSpeechHandler(s, services.Speech),
	}
}
