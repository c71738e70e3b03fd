package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ticket-review-gate/models"
)

type fakeGate struct {
	requests []models.Request
	verdict  models.Verdict
	err      error
}

func (f *fakeGate) Run(_ context.Context, req models.Request) (models.Verdict, error) {
	f.requests = append(f.requests, req)
	return f.verdict, f.err
}

func postWebhook(router *gin.Engine, event string, payload []byte, signature string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/webhook", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleGitHubWebhook_PullRequestOpened(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := &fakeGate{verdict: models.VerdictNone}
	router := NewRouter(gate, "", nil)

	w := postWebhook(router, "pull_request", []byte(pullRequestPayload), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verdict":"NONE"`)
	assert.Equal(t, []models.Request{{
		Owner:  "acme",
		Repo:   "widgets",
		Number: 7,
		Title:  "IO-42 add retries",
		Branch: "team/io-42-add-retries",
	}}, gate.requests)
}

func TestHandleGitHubWebhook_IgnoredEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := &fakeGate{}
	router := NewRouter(gate, "", nil)

	// ラベル付けでは検証し直さない
	labeled := bytes.Replace([]byte(pullRequestPayload), []byte(`"opened"`), []byte(`"labeled"`), 1)
	w := postWebhook(router, "pull_request", labeled, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = postWebhook(router, "ping", []byte(`{"zen": "Keep it logically awesome."}`), "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, gate.requests)
}

func TestHandleGitHubWebhook_Signature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := &fakeGate{verdict: models.VerdictRequestChanges}
	router := NewRouter(gate, "s3cret", nil)
	payload := []byte(pullRequestPayload)

	w := postWebhook(router, "pull_request", payload, sign("wrong", payload))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, gate.requests)

	w = postWebhook(router, "pull_request", payload, sign("s3cret", payload))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_CHANGES")
	assert.Len(t, gate.requests, 1)
}

func TestHandleGitHubWebhook_GateFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := &fakeGate{err: errors.New("fetching jira issue IO-42: 503")}
	router := NewRouter(gate, "", nil)

	w := postWebhook(router, "pull_request", []byte(pullRequestPayload), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "503")
}

func TestHandleGitHubWebhook_InvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&fakeGate{}, "", nil)

	w := postWebhook(router, "pull_request", []byte("{broken"), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&fakeGate{}, "", nil)

	req, _ := http.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
