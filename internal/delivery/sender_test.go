package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_PostJSON(t *testing.T) {
	var gotBody, gotHeader, gotCT string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotHeader = r.Header.Get("X-Test")
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := NewSender(time.Second)
	res := s.PostJSON(context.Background(), server.URL, []byte(`{"a":1}`), map[string]string{"X-Test": "yes"})

	require.NoError(t, res.Err())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", res.ResponseBody)
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, "yes", gotHeader)
	assert.Equal(t, "application/json", gotCT)
}

func TestSender_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusBadGateway)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	s := NewSender(50 * time.Millisecond)

	tests := []struct {
		name string
		url  string
	}{
		{name: "non-2xx", url: server.URL + "/bad"},
		{name: "timeout", url: server.URL + "/slow"},
		{name: "invalid url", url: "://nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.PostJSON(context.Background(), tt.url, []byte(`{}`), nil)
			assert.Error(t, res.Err())
		})
	}
}

func TestSendResult_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("busy"))
	}))
	defer server.Close()

	err := NewSender(time.Second).PostJSON(context.Background(), server.URL, []byte(`{}`), nil).Err()
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "busy", statusErr.Body)
	assert.Equal(t, "unexpected status 503: busy", err.Error())

	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(fmt.Errorf("relay event 1: %w", err)))
	assert.Zero(t, StatusCode(errors.New("request failed")))
	assert.Zero(t, StatusCode(nil))
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(199))
	assert.False(t, IsSuccess(300))
	assert.False(t, IsSuccess(500))
}
