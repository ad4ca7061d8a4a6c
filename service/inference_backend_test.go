package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBackendResponseEnvelope(t *testing.T) {
	status, body, err := parseBackendResponse([]byte(`{"statusCode": 200, "body": "\"ok\""}`), 202)
	assert.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, `"ok"`, body)
}

func TestParseBackendResponseErrorEnvelope(t *testing.T) {
	status, body, err := parseBackendResponse([]byte(`{"statusCode": 500, "body": "\"model overloaded\""}`), 200)
	assert.NoError(t, err)
	assert.Equal(t, 500, status)
	assert.Contains(t, body, "model overloaded")
}

func TestParseBackendResponseNonEnvelope(t *testing.T) {
	status, body, err := parseBackendResponse([]byte(`plain text error`), 502)
	assert.NoError(t, err)
	assert.Equal(t, 502, status)
	assert.Equal(t, "plain text error", body)
}

func TestFunctionURLBackendInvoke(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"statusCode": 200, "body": "accepted"})
	}))
	defer server.Close()

	backend := &FunctionURLBackend{
		url:    server.URL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
	status, _, err := backend.Invoke(map[string]interface{}{"inference_type": "summary"})
	assert.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, "summary", received["inference_type"])
}

func TestFunctionURLBackendTransportError(t *testing.T) {
	backend := &FunctionURLBackend{
		url:    "http://127.0.0.1:1/unreachable",
		client: &http.Client{Timeout: 500 * time.Millisecond},
	}
	_, _, err := backend.Invoke(map[string]interface{}{"inference_type": "summary"})
	assert.Error(t, err)
}
