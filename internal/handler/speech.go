package handler

import (
	"net/http"

	"github.com/deppfellow/speech-relay/internal/errs"
	"github.com/deppfellow/speech-relay/internal/model"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/deppfellow/speech-relay/internal/service"
	"github.com/labstack/echo/v4"
)

// SpeechHandler relays prompts to the speech service.
type SpeechHandler struct {
	Handler
	speech *service.SpeechService
}

// NewSpeechHandler constructs a SpeechHandler.
func NewSpeechHandler(s *server.Server, speech *service.SpeechService) *SpeechHandler {
	return &SpeechHandler{
		Handler: NewHandler(s),
		speech:  speech,
	}
}

// SpeechResponse is the success body.
type SpeechResponse struct {
	Audio string `json:"audio"`
}

// TraceAttributes describes the response on the New Relic transaction.
func (r *SpeechResponse) TraceAttributes() map[string]interface{} {
	return map[string]interface{}{
		"speech.audio_len": len(r.Audio),
	}
}

// Generate is the echo handler of the relay endpoint.
func (h *SpeechHandler) Generate() echo.HandlerFunc {
	return Handle(h.Handler, "speech.generate", h.generate, http.StatusOK, func() *model.SynthesisRequest {
		return &model.SynthesisRequest{}
	})
}

func (h *SpeechHandler) generate(c echo.Context, req *model.SynthesisRequest) (*SpeechResponse, error) {
	result, err := h.speech.Generate(c.Request().Context(), req)
	if err != nil {
		return nil, errs.NewSynthesisError(err)
	}

	return &SpeechResponse{Audio: result.Audio}, nil
}
