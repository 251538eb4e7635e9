package supervisor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/ircbot/internal/protocol/session"
	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

type scriptedRunner struct {
	err     error
	block   bool
	stopped chan struct{}
	once    sync.Once
}

func newScriptedRunner(err error, block bool) *scriptedRunner {
	return &scriptedRunner{err: err, block: block, stopped: make(chan struct{})}
}

func (r *scriptedRunner) Run(ctx context.Context) error {
	if !r.block {
		return r.err
	}
	select {
	case <-r.stopped:
	case <-ctx.Done():
	}
	return nil
}

func (r *scriptedRunner) Stop() {
	r.once.Do(func() { close(r.stopped) })
}

func transportFault() error {
	return &session.TransportError{Op: "receive", Err: io.EOF}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	if r.limit > 0 && len(r.delays) >= r.limit && r.cancel != nil {
		r.cancel()
	}
	return nil
}

func TestSupervisorBackoffSequence(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &sleepRecorder{limit: 10, cancel: cancel}

	builds := 0
	sup, err := New(func(context.Context) (Runner, error) {
		builds++
		return newScriptedRunner(transportFault(), false), nil
	}, Config{Backoff: session.DefaultBackoffConfig(), Sleep: rec.sleep})
	require.NoError(t, err)

	require.NoError(t, sup.Run(ctx))

	want := []time.Duration{2, 4, 8, 16, 32, 64, 128, 256, 2, 4}
	for i := range want {
		want[i] *= time.Second
	}
	assert.Equal(t, want, rec.delays)
	assert.Equal(t, 10, builds)
	assert.Equal(t, 10, sup.Faults())
	assert.Equal(t, 2, sup.Attempt())
}

func TestSupervisorReportsBackoff(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &sleepRecorder{limit: 3, cancel: cancel}

	var attempts []int
	sup, err := New(func(context.Context) (Runner, error) {
		return newScriptedRunner(transportFault(), false), nil
	}, Config{
		Sleep: rec.sleep,
		OnBackoff: func(attempt int, delay time.Duration) {
			attempts = append(attempts, attempt)
			assert.Equal(t, session.BackoffDelay(session.DefaultBackoffConfig(), attempt), delay)
		},
	})
	require.NoError(t, err)
	require.NoError(t, sup.Run(ctx))
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestSupervisorDoesNotRetryAuthFailureByDefault(t *testing.T) {
	testlog.Start(t)
	rec := &sleepRecorder{}
	builds := 0
	sup, err := New(func(context.Context) (Runner, error) {
		builds++
		return newScriptedRunner(session.ErrAuthenticationFailed, false), nil
	}, Config{Sleep: rec.sleep})
	require.NoError(t, err)

	err = sup.Run(context.Background())
	require.ErrorIs(t, err, session.ErrAuthenticationFailed)
	assert.Equal(t, 1, builds)
	assert.Empty(t, rec.delays)
}

func TestSupervisorCapsAuthRetries(t *testing.T) {
	testlog.Start(t)
	rec := &sleepRecorder{}
	builds := 0
	sup, err := New(func(context.Context) (Runner, error) {
		builds++
		return newScriptedRunner(session.ErrAuthenticationFailed, false), nil
	}, Config{AuthRetryLimit: 2, Sleep: rec.sleep})
	require.NoError(t, err)

	err = sup.Run(context.Background())
	require.ErrorIs(t, err, session.ErrAuthenticationFailed)
	assert.Equal(t, 3, builds)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestSupervisorRecoversAfterTransportFault(t *testing.T) {
	testlog.Start(t)
	rec := &sleepRecorder{}
	builds := 0
	sup, err := New(func(context.Context) (Runner, error) {
		builds++
		if builds < 3 {
			return newScriptedRunner(transportFault(), false), nil
		}
		return newScriptedRunner(nil, false), nil
	}, Config{Sleep: rec.sleep})
	require.NoError(t, err)

	require.NoError(t, sup.Run(context.Background()))
	assert.Equal(t, 3, builds)
	assert.Len(t, rec.delays, 2)
}

func TestSupervisorReturnsFatalErrors(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("boom")

	sup, err := New(func(context.Context) (Runner, error) {
		return newScriptedRunner(boom, false), nil
	}, Config{Sleep: (&sleepRecorder{}).sleep})
	require.NoError(t, err)
	require.ErrorIs(t, sup.Run(context.Background()), boom)

	sup, err = New(func(context.Context) (Runner, error) {
		return nil, boom
	}, Config{})
	require.NoError(t, err)
	require.ErrorIs(t, sup.Run(context.Background()), boom)
}

func TestSupervisorStopEndsRunningSession(t *testing.T) {
	testlog.Start(t)
	runner := newScriptedRunner(nil, true)
	started := make(chan struct{})
	sup, err := New(func(context.Context) (Runner, error) {
		close(started)
		return runner, nil
	}, Config{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	<-started
	sup.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not stop")
	}
}

func TestSupervisorStopInterruptsBackoffSleep(t *testing.T) {
	testlog.Start(t)
	faulted := make(chan struct{}, 1)
	sup, err := New(func(context.Context) (Runner, error) {
		select {
		case faulted <- struct{}{}:
		default:
		}
		return newScriptedRunner(transportFault(), false), nil
	}, Config{Backoff: session.BackoffConfig{Unit: time.Hour, MaxExponent: 8}})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sup.Run(context.Background()) }()

	<-faulted
	time.Sleep(50 * time.Millisecond)
	sup.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("supervisor did not wake from backoff")
	}
}

func TestSupervisorStopBeforeRun(t *testing.T) {
	testlog.Start(t)
	sup, err := New(func(context.Context) (Runner, error) {
		t.Fatalf("factory should not run after stop")
		return nil, nil
	}, Config{})
	require.NoError(t, err)
	sup.Stop()
	require.NoError(t, sup.Run(context.Background()))
}

func TestNewRequiresFactory(t *testing.T) {
	testlog.Start(t)
	_, err := New(nil, Config{})
	require.ErrorIs(t, err, ErrFactoryRequired)
}
