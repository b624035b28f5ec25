package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Prompt string `json:"prompt"`
	Lang   string `json:"lang"`
}

func decode(t *testing.T, body string) (*payload, error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c := echo.New().NewContext(req, httptest.NewRecorder())

	p := &payload{}
	return p, DecodeJSON(c, p)
}

func TestDecodeJSONRejectsInvalidBodies(t *testing.T) {
	for _, body := range []string{``, `   `, `{"prompt":`, `null`, `{"prompt":"a"} x`, `{"prompt":"a"}{"b":1}`, `[1] 2`} {
		_, err := decode(t, body)
		assert.Error(t, err, body)
	}
}

func TestDecodeJSONDropsFalsyMembers(t *testing.T) {
	tests := []struct {
		body string
		want payload
	}{
		{body: `{"prompt":"hi","lang":"de"}`, want: payload{Prompt: "hi", Lang: "de"}},
		{body: ` {"prompt":"hi"} `, want: payload{Prompt: "hi"}},
		{body: `{"prompt":0,"lang":false}`, want: payload{}},
		{body: `{"prompt":-0.0,"lang":null}`, want: payload{}},
		{body: `{"prompt":"","lang":"fr"}`, want: payload{Lang: "fr"}},
		{body: `[]`, want: payload{}},
		{body: `"hello"`, want: payload{}},
		{body: `42`, want: payload{}},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := decode(t, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDecodeJSONKeepsTruthyWrongTypes(t *testing.T) {
	for _, body := range []string{`{"prompt":42}`, `{"prompt":true}`, `{"prompt":{}}`, `{"prompt":[]}`} {
		_, err := decode(t, body)
		assert.Error(t, err, body)
	}
}

func TestIsFalsy(t *testing.T) {
	for _, v := range []string{`null`, `false`, `""`, `0`, `-0`, `0.0`, `0e10`} {
		assert.True(t, isFalsy([]byte(v)), v)
	}

	for _, v := range []string{`true`, `"0"`, `" "`, `1`, `-0.1`, `{}`, `[]`} {
		assert.False(t, isFalsy([]byte(v)), v)
	}
}
