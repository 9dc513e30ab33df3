package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"medcomm-trainer/internal/scenario"
)

type stubSTT struct {
	text string
	err  error
}

func (s stubSTT) Transcribe(context.Context, []byte, string, string) (string, error) {
	return s.text, s.err
}

func newTestRouter(t *testing.T, gen *stubGenerator, tts Synthesizer) http.Handler {
	t.Helper()
	svc, err := NewService(Deps{
		Scenarios:   stubScenarios{scenarios: map[string]*scenario.Scenario{"elena-petrova": elena()}},
		Generator:   gen,
		Synthesizer: tts,
		Transcriber: stubSTT{text: "I have a headache"},
	})
	require.NoError(t, err)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func TestChatHandler_AudioIsNullWhenSynthesisFails(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{}, nil)
	body := `{"scenario_id":"elena-petrova","history":[],"message":"Hello","current_emotional_state":"Calm"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"text_response":"Hello doctor.","audio_response_base64":null,"new_emotional_state":"Calm"}`, rec.Body.String())
}

func TestChatHandler_EncodesAudio(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{}, &stubTTS{audio: []byte("abc")})
	body := `{"scenario_id":"elena-petrova","message":"Hello"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.AudioResponseBase64)
	require.Equal(t, "YWJj", *resp.AudioResponseBase64)
}

func TestChatHandler_UnknownScenario(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubGenerator{}, nil).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"scenario_id":"x","message":"hi"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_MalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubGenerator{}, nil).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTextToSpeechHandler(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{}, &stubTTS{audio: []byte("abc")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/text-to-speech", strings.NewReader(`{"text":"hi"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"audio_response_base64":"YWJj"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/text-to-speech", strings.NewReader(`{"text":""}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTextToSpeechHandler_NullAudioWhenSynthesisFails(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{}, &stubTTS{err: errors.New("quota")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/text-to-speech", strings.NewReader(`{"text":"hi"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"audio_response_base64":null}`, rec.Body.String())
}

func uploadRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="note.webm"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTranscribeHandler(t *testing.T) {
	router := newTestRouter(t, &stubGenerator{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "audio/webm", []byte("voice")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"transcript":"I have a headache"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "text/plain", []byte("voice")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
