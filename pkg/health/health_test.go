package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(s *Service, endpoint func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	s := New()

	rec := probe(s, s.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")

	s.SetReady(true)
	rec = probe(s, s.ReadyEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLiveEndpoint_HealthyByDefault(t *testing.T) {
	s := New()
	s.Add(Liveness, "noop", time.Second, func(context.Context) error { return nil })

	rec := probe(s, s.LiveEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCheck_FailureThreshold(t *testing.T) {
	s := New()
	s.Add(Readiness, "flaky", time.Second, func(context.Context) error {
		return errors.New("db down")
	})
	s.SetReady(true)

	c := s.checks[0]
	ctx := context.Background()

	// Below the threshold the check is still considered healthy.
	c.run(ctx)
	c.run(ctx)
	require.Equal(t, http.StatusOK, probe(s, s.ReadyEndpoint).Code)

	c.run(ctx)
	rec := probe(s, s.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
	assert.False(t, s.IsReady())
}

func TestCheck_RecoversAfterSuccess(t *testing.T) {
	var fail bool
	s := New()
	s.Add(Liveness, "toggle", time.Second, func(context.Context) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	})

	c := s.checks[0]
	ctx := context.Background()

	fail = true
	for i := 0; i < defaultFailureThreshold; i++ {
		c.run(ctx)
	}
	require.Equal(t, http.StatusServiceUnavailable, probe(s, s.LiveEndpoint).Code)

	fail = false
	c.run(ctx)
	require.Equal(t, http.StatusOK, probe(s, s.LiveEndpoint).Code)
}

func TestCheck_Timeout(t *testing.T) {
	s := New()
	s.Add(Readiness, "slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	c := s.checks[0]
	for i := 0; i < defaultFailureThreshold; i++ {
		c.run(context.Background())
	}
	s.SetReady(true)
	assert.False(t, s.IsReady())
}

func TestStartStop(t *testing.T) {
	var calls int
	done := make(chan struct{})
	s := New()
	s.Add(Liveness, "counter", time.Second, func(context.Context) error {
		if calls++; calls == 2 {
			close(done)
		}
		return nil
	})

	s.Start(context.Background(), 5*time.Millisecond)
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("check was not run periodically")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
