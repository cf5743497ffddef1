package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"expense-ingest/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMLClient(url string) *MLClient {
	return NewMLClient(&config.MLConfig{
		URL:          url + "/",
		Timeout:      time.Second,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())
}

func TestMLClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "posto shell", req.Text)

		_ = json.NewEncoder(w).Encode(classifyResponse{Category: "transporte"})
	}))
	defer srv.Close()

	label, err := newTestMLClient(srv.URL).Classify(context.Background(), "posto shell")
	require.NoError(t, err)
	assert.Equal(t, "transporte", label)
}

func TestMLClient_RetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(classifyResponse{Category: "Lazer"})
	}))
	defer srv.Close()

	label, err := newTestMLClient(srv.URL).Classify(context.Background(), "cinema")
	require.NoError(t, err)
	assert.Equal(t, "Lazer", label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMLClient_GivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestMLClient(srv.URL).Classify(context.Background(), "cinema")
	require.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMLClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestMLClient(srv.URL).Classify(context.Background(), "cinema")
	require.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMLClient_EmptyCategoryIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"category":"  "}`))
	}))
	defer srv.Close()

	_, err := newTestMLClient(srv.URL).Classify(context.Background(), "cinema")
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestMLClient_AttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := NewMLClient(&config.MLConfig{URL: srv.URL, Timeout: 50 * time.Millisecond, RetryBackoff: time.Millisecond}, zap.NewNop())
	_, err := client.Classify(context.Background(), "cinema")
	require.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMLClient_SendFeedback(t *testing.T) {
	var got feedbackRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestMLClient(srv.URL).SendFeedback(context.Background(), "POSTO IPIRANGA", "Transporte")
	require.NoError(t, err)
	assert.Equal(t, feedbackRequest{Text: "POSTO IPIRANGA", Label: "Transporte"}, got)
}

func TestMLClient_Retrain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/retrain", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, newTestMLClient(srv.URL).Retrain(context.Background()))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&statusError{code: http.StatusBadGateway}))
	assert.True(t, isTransient(&statusError{code: http.StatusTooManyRequests}))
	assert.False(t, isTransient(&statusError{code: http.StatusNotFound}))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(context.Canceled))
}
