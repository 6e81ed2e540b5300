package throttle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitDisabledWhenIntervalZero(t *testing.T) {
	th := New(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, th.Wait(context.Background(), "example.com"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitPacesRequestsPerHost(t *testing.T) {
	th := New(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(context.Background(), "example.com"))
	}
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitIndependentPerHost(t *testing.T) {
	th := New(50 * time.Millisecond)
	require.NoError(t, th.Wait(context.Background(), "a.example.com"))
	require.NoError(t, th.Wait(context.Background(), "b.example.com"))

	start := time.Now()
	require.NoError(t, th.Wait(context.Background(), "c.example.com"))
	require.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitRespectsCancellation(t *testing.T) {
	th := New(time.Hour)
	// Consume the initial burst token so the next Wait would actually block.
	require.NoError(t, th.Wait(context.Background(), "example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := th.Wait(ctx, "example.com")
	require.Error(t, err)
}

func TestTransportPacesRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	transport := &Transport{Throttler: New(30 * time.Millisecond)}
	client := &http.Client{Transport: transport}

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
