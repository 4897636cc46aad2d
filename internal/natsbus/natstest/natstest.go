// internal/natsbus/natstest/natstest.go

// Package natstest runs an embedded NATS server and a fake tracking
// process for tests.
package natstest

import (
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/stretchr/testify/require"
)

// RunServer starts an embedded server on a random port and stops it
// when the test ends.
func RunServer(t testing.TB) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}
	t.Cleanup(srv.Shutdown)

	return srv
}

// Connect opens a client connection closed at test end.
func Connect(t testing.TB, srv *server.Server) *nats.Conn {
	t.Helper()

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return nc
}

// Remote is a fake tracking process exposing command endpoints as a
// micro service. Every endpoint replies {"ok":true} until overridden.
type Remote struct {
	svc micro.Service

	mu       sync.Mutex
	handlers map[string]micro.HandlerFunc
	requests map[string][]micro.Request
}

// StartRemote registers service name with one endpoint per subject.
// Endpoint names are the last subject token.
func StartRemote(t testing.TB, nc *nats.Conn, name string, subjects ...string) *Remote {
	t.Helper()

	svc, err := micro.AddService(nc, micro.Config{
		Name:    name,
		Version: "0.1.0",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop() })

	r := &Remote{
		svc:      svc,
		handlers: make(map[string]micro.HandlerFunc),
		requests: make(map[string][]micro.Request),
	}

	for _, subject := range subjects {
		r.AddEndpoint(t, subject)
	}

	return r
}

// AddEndpoint exposes one more subject on the running service.
func (r *Remote) AddEndpoint(t testing.TB, subject string) {
	t.Helper()

	err := r.svc.AddEndpoint(endpointName(subject), micro.HandlerFunc(func(req micro.Request) {
		r.mu.Lock()
		r.requests[subject] = append(r.requests[subject], req)
		h := r.handlers[subject]
		r.mu.Unlock()

		if h != nil {
			h(req)
			return
		}
		_ = req.Respond([]byte(`{"ok":true}`))
	}), micro.WithEndpointSubject(subject))
	require.NoError(t, err)
}

// Handle overrides the reply behavior of subject.
func (r *Remote) Handle(subject string, h micro.HandlerFunc) {
	r.mu.Lock()
	r.handlers[subject] = h
	r.mu.Unlock()
}

// Requests returns the requests received on subject so far.
func (r *Remote) Requests(subject string) []micro.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]micro.Request(nil), r.requests[subject]...)
}

func endpointName(subject string) string {
	for i := len(subject) - 1; i >= 0; i-- {
		if subject[i] == '.' {
			return subject[i+1:]
		}
	}
	return subject
}
