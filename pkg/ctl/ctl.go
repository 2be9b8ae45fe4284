// Package ctl exposes a running application to automation clients over
// JSON-RPC 2.0.
//
// Clients connect to the server's listener and speak plain JSON-RPC
// objects. Three methods are available: "inject" feeds a key chord into the
// application's event stream, "state" returns the state of a mounted
// component, and "mounted" lists the mounted components.
//
// The application stays single-threaded: injected events travel through an
// ordinary input port, and queries wait until the goroutine that owns the
// application answers them by calling Dispatch.
package ctl

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/loomtk/loom/pkg/event"
	"github.com/loomtk/loom/pkg/listen"
	"github.com/loomtk/loom/pkg/loom"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
	errFeedFull = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInternalError, Message: "event feed full"}
)

// How many injected events may wait undelivered before inject starts
// reporting errFeedFull.
const feedBuffer = 64

// Params and results of the control methods.
type (
	InjectParams struct {
		Chord string `json:"chord"`
	}
	StateParams struct {
		ID string `json:"id"`
	}
	StateResult struct {
		State any `json:"state"`
	}
	MountedResult struct {
		IDs []string `json:"ids"`
	}
)

// Server accepts control connections and bridges them to an application.
type Server struct {
	listener net.Listener
	feed     chan event.Event
	queries  chan query

	mu    sync.Mutex
	conns map[*jsonrpc2.Conn]struct{}
}

type query struct {
	run   func(app *loom.App) (any, error)
	reply chan queryResult
}

type queryResult struct {
	value any
	err   error
}

// NewServer starts serving on l.
func NewServer(l net.Listener) *Server {
	s := &Server{
		listener: l,
		feed:     make(chan event.Event, feedBuffer),
		queries:  make(chan query),
		conns:    make(map[*jsonrpc2.Conn]struct{}),
	}
	go s.accept()
	return s
}

func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		rpcConn := jsonrpc2.NewConn(context.Background(),
			jsonrpc2.NewBufferedStream(conn, jsonrpc2.PlainObjectCodec{}),
			s.handler())
		s.mu.Lock()
		if s.conns == nil {
			// The server was closed while this connection was being
			// accepted.
			s.mu.Unlock()
			rpcConn.Close()
			return
		}
		s.conns[rpcConn] = struct{}{}
		s.mu.Unlock()
		go func() {
			<-rpcConn.DisconnectNotify()
			s.mu.Lock()
			delete(s.conns, rpcConn)
			s.mu.Unlock()
		}()
	}
}

// Feed returns the poller that delivers injected events. Wire it to the
// application as an input port.
func (s *Server) Feed() listen.Poller { return listen.ChanSource(s.feed) }

// Dispatch answers the control queries that have arrived since the last
// call. It must be called from the goroutine that owns app, typically once
// per turn of the application's event loop.
func (s *Server) Dispatch(app *loom.App) {
	for {
		select {
		case q := <-s.queries:
			v, err := q.run(app)
			q.reply <- queryResult{v, err}
		default:
			return
		}
	}
}

// Close stops accepting connections and disconnects the clients that are
// still connected.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		// Ignore the error; a failure to close means the client has
		// already disconnected.
		conn.Close()
	}
	s.conns = nil
	return err
}

func (s *Server) handler() jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"inject":  s.inject,
		"state":   s.state,
		"mounted": s.mounted,
	})
}

type method func(ctx context.Context, rawParams json.RawMessage) (any, error)

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var rawParams json.RawMessage
		if req.Params != nil {
			rawParams = *req.Params
		}
		return fn(ctx, rawParams)
	})
}

// Handler implementations. Inject is answered inline; the others are
// answered by Dispatch on the application's goroutine.

func (s *Server) inject(_ context.Context, rawParams json.RawMessage) (any, error) {
	var params InjectParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	k, err := event.ParseKey(params.Chord)
	if err != nil {
		return nil, &jsonrpc2.Error{
			Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	select {
	case s.feed <- k:
		return nil, nil
	default:
		return nil, errFeedFull
	}
}

func (s *Server) state(ctx context.Context, rawParams json.RawMessage) (any, error) {
	var params StateParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	return s.ask(ctx, func(app *loom.App) (any, error) {
		st, err := app.State(params.ID)
		if err != nil {
			return nil, err
		}
		return StateResult{State: st}, nil
	})
}

func (s *Server) mounted(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.ask(ctx, func(app *loom.App) (any, error) {
		return MountedResult{IDs: app.Mounted()}, nil
	})
}

// ask hands a query to the application's goroutine and waits for the
// answer.
func (s *Server) ask(ctx context.Context, run func(app *loom.App) (any, error)) (any, error) {
	q := query{run: run, reply: make(chan queryResult, 1)}
	select {
	case s.queries <- q:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-q.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
