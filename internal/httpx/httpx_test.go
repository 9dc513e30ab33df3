package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"medcomm-trainer/internal/apperr"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	require.Equal(t, "hi", v.Text)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not-json`))
	err := DecodeJSON(httptest.NewRecorder(), req, &v)
	require.True(t, apperr.Is(err, apperr.KindBadRequest))
}
