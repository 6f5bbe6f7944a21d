package tts

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/infrastructure/breaker"
	"NewsBrief/internal/logging"
)

func TestSynthesizeDecodesAudio(t *testing.T) {
	audio := []byte("ID3-fake-mp3")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "tts-key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		if req.Voice.Name != domain.FemaleVoice.Name || req.Voice.LanguageCode != "ko-KR" ||
			req.AudioConfig.AudioEncoding != "MP3" || req.AudioConfig.SpeakingRate != 1.1 || req.Input.Text != "요약" {
			http.Error(w, "unexpected payload", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"audioContent":"` + base64.StdEncoding.EncodeToString(audio) + `"}`))
	}))
	defer srv.Close()

	c := NewGoogleClient(config.TTSConfig{Endpoint: srv.URL + "/v1/text:synthesize", APIKey: "tts-key", Timeout: 5 * time.Second}, breaker.Settings{}, logging.Discard())

	got, err := c.Synthesize(context.Background(), "요약", domain.FemaleVoice)
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestSynthesizeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("empty") == "1" {
			_, _ = w.Write([]byte(`{"audioContent":""}`))
			return
		}
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGoogleClient(config.TTSConfig{Endpoint: srv.URL}, breaker.Settings{}, logging.Discard())
	_, err := c.Synthesize(context.Background(), "요약", domain.MaleVoice)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	empty := NewGoogleClient(config.TTSConfig{Endpoint: srv.URL + "?empty=1"}, breaker.Settings{}, logging.Discard())
	_, err = empty.Synthesize(context.Background(), "요약", domain.MaleVoice)
	require.Error(t, err)

	_, err = c.Synthesize(context.Background(), "  ", domain.MaleVoice)
	require.Error(t, err)
}
