package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProvider_Send(t *testing.T) {
	var hits atomic.Int32
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, "/v1/messages", "sekrit", 1000, 3, 1000)
	err := p.Send(context.Background(), model.SMS{Phone: "254712345678", Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, "Bearer sekrit", gotAuth.Load())
}

func TestHTTPProvider_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider("test", srv.URL, "/send", "", 1000, 3, 1000)
	err := p.Send(context.Background(), model.SMS{Phone: "254712345678", Text: "hi"})
	assert.Error(t, err)
}

func TestDispatcher_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider("flaky", srv.URL, "/send", "", 1000, 10, 1000)
	d := NewDispatcher([]Provider{p})

	err := d.Send(context.Background(), model.SMS{Phone: "254712345678", Text: "hi"})

	// a failed send is reported once, not retried
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDispatcher_NoHealthyProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// threshold 1: first failure opens the breaker for a minute
	p := NewHTTPProvider("dead", srv.URL, "/send", "", 1000, 1, 60000)
	d := NewDispatcher([]Provider{p})

	_ = d.Send(context.Background(), model.SMS{Phone: "254712345678", Text: "hi"})
	err := d.Send(context.Background(), model.SMS{Phone: "254712345678", Text: "hi"})

	assert.ErrorIs(t, err, ErrNoHealthy)
}

func TestMicroBreaker_OpensAndProbes(t *testing.T) {
	b := NewMicroBreaker(2, 50*time.Millisecond)

	assert.True(t, b.Ready())
	b.OnFailure()
	assert.True(t, b.Ready())
	b.OnFailure()
	assert.False(t, b.Ready())

	time.Sleep(60 * time.Millisecond)

	// one probe allowed once the open window lapses
	assert.True(t, b.TryAcquire())
	assert.False(t, b.TryAcquire())

	b.OnSuccess()
	assert.True(t, b.Ready())
	assert.True(t, b.TryAcquire())
}

func TestMicroBreaker_FailedProbeReopens(t *testing.T) {
	b := NewMicroBreaker(1, 30*time.Millisecond)

	b.OnFailure()
	assert.False(t, b.Ready())

	time.Sleep(40 * time.Millisecond)
	require.True(t, b.TryAcquire())
	b.OnFailure()

	assert.False(t, b.Ready())
}
