package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestProberHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	prober := NewProber(srv.URL, time.Second, &logger)

	assert.True(t, prober.IsReachable(context.Background()))
}

func TestProberDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	logger := zerolog.Nop()
	prober := NewProber(srv.URL, time.Second, &logger)

	assert.False(t, prober.IsReachable(context.Background()))
}

func TestProberUnhealthyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	prober := NewProber(srv.URL, time.Second, &logger)

	assert.False(t, prober.IsReachable(context.Background()))
}

func TestProberTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	prober := NewProber(srv.URL, 50*time.Millisecond, &logger)

	assert.False(t, prober.IsReachable(context.Background()))
}
