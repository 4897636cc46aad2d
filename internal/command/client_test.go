// internal/command/client_test.go
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sysmon-bridge/internal/codec"
)

// ---- fake caller ----

type callRecord struct {
	subject   string
	requestID string
	payload   []byte
}

type fakeCaller struct {
	mu        sync.Mutex
	calls     []callRecord
	endpoints map[string]bool

	// respond decides the outcome of one Call; defaults to an ok reply.
	respond func(ctx context.Context, subject string, payload []byte) ([]byte, error)
}

func newFakeCaller(endpoints ...string) *fakeCaller {
	f := &fakeCaller{endpoints: make(map[string]bool)}
	for _, ep := range endpoints {
		f.endpoints[ep] = true
	}
	return f
}

func (f *fakeCaller) Call(ctx context.Context, subject, requestID string, payload []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, callRecord{subject: subject, requestID: requestID, payload: payload})
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return []byte(`{"ok":true}`), nil
	}
	return respond(ctx, subject, payload)
}

func (f *fakeCaller) WaitForEndpoint(ctx context.Context, subject string) error {
	for {
		f.mu.Lock()
		ok := f.endpoints[subject]
		f.mu.Unlock()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (f *fakeCaller) setRespond(fn func(ctx context.Context, subject string, payload []byte) ([]byte, error)) {
	f.mu.Lock()
	f.respond = fn
	f.mu.Unlock()
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCaller) lastCall() callRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// ---- helpers ----

var testEndpoints = Endpoints{Init: "t.init", Reset: "t.reset"}

func newTestClient(t *testing.T, caller Caller, timeout time.Duration) *Client {
	t.Helper()

	c, err := NewClient(Config{Endpoints: testEndpoints, Timeout: timeout}, caller, codec.JSON{}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func newReadyClient(t *testing.T, timeout time.Duration) (*Client, *fakeCaller) {
	t.Helper()

	f := newFakeCaller(testEndpoints.Init, testEndpoints.Reset)
	c := newTestClient(t, f, timeout)
	require.NoError(t, c.Handshake(context.Background()))
	return c, f
}

// ---- tests ----

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Endpoints: testEndpoints, Timeout: time.Second}, nil, codec.JSON{}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewClient(Config{Endpoints: Endpoints{Init: "a"}, Timeout: time.Second}, newFakeCaller(), codec.JSON{}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewClient(Config{Endpoints: testEndpoints}, newFakeCaller(), codec.JSON{}, zerolog.Nop())
	require.Error(t, err)
}

func TestDo_FailsFastBeforeHandshake(t *testing.T) {
	f := newFakeCaller()
	c := newTestClient(t, f, time.Second)

	_, err := c.Init(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 0, f.callCount())

	select {
	case <-c.Ready():
		t.Fatal("ready before handshake")
	default:
	}
}

func TestHandshake_WaitsForBothEndpoints(t *testing.T) {
	f := newFakeCaller(testEndpoints.Init)
	c := newTestClient(t, f, time.Second)

	done := make(chan error, 1)
	go func() { done <- c.Handshake(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("handshake returned early: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	f.mu.Lock()
	f.endpoints[testEndpoints.Reset] = true
	f.mu.Unlock()

	require.NoError(t, <-done)

	select {
	case <-c.Ready():
	default:
		t.Fatal("ready not signalled")
	}
}

func TestHandshake_Timeout(t *testing.T) {
	f := newFakeCaller()
	c, err := NewClient(Config{
		Endpoints:        testEndpoints,
		Timeout:          time.Second,
		HandshakeTimeout: 20 * time.Millisecond,
	}, f, codec.JSON{}, zerolog.Nop())
	require.NoError(t, err)

	err = c.Handshake(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = c.Init(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
}

func TestInit_Ack(t *testing.T) {
	c, f := newReadyClient(t, time.Second)
	f.setRespond(func(context.Context, string, []byte) ([]byte, error) {
		return []byte(`{"ok":true,"message":"initialized"}`), nil
	})

	ack, err := c.Init(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindInit, ack.Kind)
	assert.Equal(t, "initialized", ack.Message)
	assert.NotEmpty(t, ack.RequestID)

	call := f.lastCall()
	assert.Equal(t, testEndpoints.Init, call.subject)
	assert.Equal(t, ack.RequestID, call.requestID)
	assert.JSONEq(t, `{}`, string(call.payload))
}

func TestReset_PassesFlagsThrough(t *testing.T) {
	c, f := newReadyClient(t, time.Second)

	_, err := c.Reset(context.Background(), ResetFlags{ResetMap: true, ResetPose: false})
	require.NoError(t, err)

	call := f.lastCall()
	assert.Equal(t, testEndpoints.Reset, call.subject)

	var flags ResetFlags
	require.NoError(t, json.Unmarshal(call.payload, &flags))
	assert.Equal(t, ResetFlags{ResetMap: true}, flags)
}

func TestReset_RemoteRejected(t *testing.T) {
	c, f := newReadyClient(t, time.Second)
	f.setRespond(func(context.Context, string, []byte) ([]byte, error) {
		return []byte(`{"ok":false,"message":"map locked"}`), nil
	})

	_, err := c.Do(context.Background(), Request{Kind: KindReset, Reset: ResetFlags{ResetMap: true}})
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "map locked")

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindReset, cerr.Kind)
	assert.Equal(t, "remote_rejected", Reason(err))
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
		err   error
		want  error
	}{
		{"no responders", nil, errors.New("nats: no responders available for request"), ErrTransport},
		{"adapter rejection", nil, fmt.Errorf("%w: service error 500", ErrRejected), ErrRejected},
		{"adapter timeout", nil, fmt.Errorf("%w: nats: timeout", ErrTimeout), ErrTimeout},
		{"garbled reply", []byte(`{"ok":`), nil, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newReadyClient(t, time.Second)
			f.setRespond(func(context.Context, string, []byte) ([]byte, error) {
				return tt.reply, tt.err
			})

			_, err := c.Init(context.Background())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuit_NotImplemented(t *testing.T) {
	c, f := newReadyClient(t, time.Second)

	_, err := c.Quit(context.Background())
	require.ErrorIs(t, err, ErrNotImplemented)
	assert.Equal(t, 0, f.callCount())

	// also before the handshake
	c2 := newTestClient(t, newFakeCaller(), time.Second)
	_, err = c2.Quit(context.Background())
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestDo_BusyPerKind(t *testing.T) {
	c, f := newReadyClient(t, 5*time.Second)

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	f.setRespond(func(_ context.Context, subject string, _ []byte) ([]byte, error) {
		if subject == testEndpoints.Reset {
			entered <- struct{}{}
			<-release
		}
		return []byte(`{"ok":true}`), nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := c.Reset(context.Background(), ResetFlags{ResetMap: true})
		first <- err
	}()
	<-entered

	_, err := c.Reset(context.Background(), ResetFlags{ResetMap: true})
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, f.callCount(), "busy request must not reach the remote endpoint")

	// other kinds are unaffected
	_, err = c.Init(context.Background())
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-first)

	_, err = c.Reset(context.Background(), ResetFlags{})
	require.NoError(t, err)
}

func TestDo_TimeoutClearsInFlight(t *testing.T) {
	const bound = 50 * time.Millisecond
	c, f := newReadyClient(t, bound)

	// a transport that ignores ctx entirely
	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	f.setRespond(func(context.Context, string, []byte) ([]byte, error) {
		<-hang
		return nil, errors.New("released")
	})

	start := time.Now()
	_, err := c.Reset(context.Background(), ResetFlags{ResetMap: true})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*bound)

	f.setRespond(nil)

	_, err = c.Reset(context.Background(), ResetFlags{ResetMap: true})
	require.NoError(t, err)
}

func TestDo_ClosedClient(t *testing.T) {
	c, f := newReadyClient(t, time.Second)
	c.Close()

	_, err := c.Init(context.Background())
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, f.callCount())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "busy", Reason(fail(KindReset, ErrBusy, nil)))
	assert.Equal(t, "timeout", Reason(fail(KindReset, ErrTimeout, context.DeadlineExceeded)))
	assert.Equal(t, "not_implemented", Reason(fail(KindQuit, ErrNotImplemented, nil)))
	assert.Equal(t, "not_ready", Reason(fail(KindInit, ErrNotReady, nil)))
	assert.Equal(t, "transport_failure", Reason(errors.New("boom")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "init", KindInit.String())
	assert.Equal(t, "reset", KindReset.String())
	assert.Equal(t, "quit", KindQuit.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
