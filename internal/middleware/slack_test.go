package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func signSlackRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	sig := "v0=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", sig)
	return req
}

func TestVerifySlackSignature(t *testing.T) {
	var gotBody string
	handler := VerifySlackSignature(testSigningSecret)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.WriteHeader(http.StatusOK)
		}))

	body := `{"type":"event_callback"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signSlackRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, gotBody, "body restored for the next handler")
}

func TestVerifySlackSignatureRejectsTampering(t *testing.T) {
	handler := VerifySlackSignature(testSigningSecret)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := signSlackRequest(t, `{"type":"event_callback"}`)
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifySlackSignatureMissingHeaders(t *testing.T) {
	handler := VerifySlackSignature(testSigningSecret)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifySlackSignatureNoSecret(t *testing.T) {
	handler := VerifySlackSignature("")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signSlackRequest(t, "{}"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
