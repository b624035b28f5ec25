package service

import (
	"github.com/deppfellow/speech-relay/internal/server"
)

// Services is the container of every service the handlers can call.
type Services struct {
	Speech *SpeechService
}

// NewServices wires each service to the shared dependencies of the server.
func NewServices(s *server.Server) (*Services, error) {
	speech, err := NewSpeechService(s)
	if err != nil {
		return nil, err
	}

	return &Services{
		Speech: speech,
	}, nil
}
