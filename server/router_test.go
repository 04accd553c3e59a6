package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/care-symbols/enrich"
	"github.com/nvr-ai/care-symbols/function"
)

type recordingInvoker struct {
	body  []byte
	calls int
	resp  function.Response
}

func (r *recordingInvoker) Handle(_ context.Context, body []byte) function.Response {
	r.calls++
	r.body = body
	return r.resp
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	router := NewRouter(&recordingInvoker{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestInvokeSuccess(t *testing.T) {
	invoker := &recordingInvoker{resp: function.Response{
		Success: true,
		FileID:  "f1",
		Results: []enrich.Result{{Title: "Hand Wash", Confidence: 0.75, Category: "Washing"}},
	}}
	router := NewRouter(invoker, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"fileId":"f1"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"fileId":"f1"}`, string(invoker.body))
	assert.JSONEq(t, `{
		"success": true,
		"fileId": "f1",
		"results": [{
			"title": "Hand Wash",
			"confidence": 0.75,
			"shortDescription": "",
			"dos": "",
			"donts": "",
			"image": "",
			"category": "Washing"
		}]
	}`, w.Body.String())
}

func TestInvokeFailureStillAnswers200(t *testing.T) {
	invoker := &recordingInvoker{resp: function.Response{Success: false, Error: "Missing required parameter: fileId"}}
	router := NewRouter(invoker, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, invoker.body)
	assert.JSONEq(t, `{"success":false,"error":"Missing required parameter: fileId"}`, w.Body.String())
}

func TestInvokeBodyLimit(t *testing.T) {
	invoker := &recordingInvoker{resp: function.Response{Success: true, FileID: "f1"}}
	router := NewRouter(invoker, nil)

	w := httptest.NewRecorder()
	oversized := strings.Repeat("a", MaxBodyBytes+1)
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(oversized)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, invoker.calls)
	assert.JSONEq(t, `{"success":false,"error":"request body too large: limit is 1048576 bytes"}`, w.Body.String())

	w = httptest.NewRecorder()
	exact := `{"fileId":"f1"}` + strings.Repeat(" ", MaxBodyBytes-len(`{"fileId":"f1"}`))
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(exact)))

	assert.Equal(t, 1, invoker.calls)
	assert.Len(t, invoker.body, MaxBodyBytes)
}
