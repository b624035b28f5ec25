package handler

import (
	"time"

	"github.com/deppfellow/speech-relay/internal/middleware"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/deppfellow/speech-relay/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler is embedded by concrete handlers so they can reach the shared
// dependencies held by *server.Server (config, logger, synthesizer).
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a decoded and validated
// payload and returns the response body or an error.
//
// Req is a pointer type, e.g. *model.SynthesisRequest, so it can be decoded into.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// TraceAttributer is implemented by response bodies that describe
// themselves on the New Relic transaction.
type TraceAttributer interface {
	TraceAttributes() map[string]interface{}
}

// ResponseHandler writes a successful result.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error

	// GetOperation names the operation in the request log lines.
	GetOperation() string
}

// JSONResponseHandler writes the result as JSON with a fixed status code.
type JSONResponseHandler struct {
	operation string
	status    int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return h.operation
}

// transaction wraps the optional New Relic transaction of a request.
type transaction struct {
	txn *newrelic.Transaction
}

func (t transaction) set(key string, value interface{}) {
	if t.txn != nil {
		t.txn.AddAttribute(key, value)
	}
}

// phase records the outcome and duration of one pipeline step.
func (t transaction) phase(name string, d time.Duration, err error) {
	if t.txn == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		t.txn.NoticeError(nrpkgerrors.Wrap(err))
	}

	t.set(name+".status", status)
	t.set(name+".duration_ms", d.Milliseconds())
}

func (t transaction) describe(result interface{}) {
	if attributer, ok := result.(TraceAttributer); ok {
		for key, value := range attributer.TraceAttributes() {
			t.set(key, value)
		}
	}
}

// handleRequest decodes and validates req, runs handler and writes its result.
// Errors are returned untouched so the global error handler formats them.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()

	txn := transaction{txn: newrelic.FromContext(c.Request().Context())}
	txn.set("handler.name", c.Path())

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	err := validation.BindAndValidate(c, req)
	validationDuration := time.Since(validationStart)
	txn.phase("validation", validationDuration, err)

	if err != nil {
		logger.Warn().Err(err).Dur("validation_duration", validationDuration).Msg("request validation failed")
		return err
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)
	txn.phase("handler", handlerDuration, err)
	txn.set("total.duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		durations(logger.Error().Err(err), validationDuration, handlerDuration, time.Since(start)).
			Msg("handler execution failed")
		return err
	}

	txn.describe(result)
	durations(logger.Info(), validationDuration, handlerDuration, time.Since(start)).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

func durations(e *zerolog.Event, validate, run, total time.Duration) *zerolog.Event {
	return e.
		Dur("validation_duration", validate).
		Dur("handler_duration", run).
		Dur("total_duration", total)
}

// Handle adapts a typed handler into an echo.HandlerFunc answering with status.
//
// newReq is called once per request so no payload is shared between
// concurrent requests.
//
//	r.POST("/", Handle(h, "speech.generate", fn, http.StatusOK, func() *Req { return &Req{} }))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	operation string,
	handler HandlerFunc[Req, Res],
	status int,
	newReq func() Req,
) echo.HandlerFunc {
	responseHandler := JSONResponseHandler{operation: operation, status: status}

	return func(c echo.Context) error {
		return handleRequest(c, newReq(), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, responseHandler)
	}
}
