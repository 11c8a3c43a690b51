package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casefile/internal/engine"
	"casefile/internal/store"
)

// Store is the slice of the catalog the server needs: cases to start sessions
// from and somewhere to record finished sessions.
type Store interface {
	ListCases(ctx context.Context) ([]store.CaseSummary, error)
	GetCase(ctx context.Context, id string) (*store.Case, error)
	RecordResult(ctx context.Context, r store.Result) error
}

type Options struct {
	Version string
	Logger  *slog.Logger
	// TimeLimit overrides the case time limit for new sessions when non-zero.
	TimeLimit int
}

type Server struct {
	db        Store
	log       *slog.Logger
	timeLimit int
	now       func() time.Time
	mcp       *sdk.Server

	mu       sync.Mutex
	sessions map[string]*session
}

// session pairs an engine with the wall-clock instant its countdown was last
// advanced. Elapsed time is charged on access.
type session struct {
	engine *engine.Engine
	synced time.Time
}

func NewServer(db Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		db:        db,
		log:       log,
		timeLimit: opts.TimeLimit,
		now:       time.Now,
		sessions:  make(map[string]*session),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "casefile",
			Version: opts.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

func (s *Server) addSession(e *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[e.SessionID()] = &session{engine: e, synced: s.now()}
}

// session looks up id and charges it for the whole seconds elapsed since it
// was last touched.
func (s *Server) session(id string) (*engine.Engine, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	now := s.now()
	ticks := int(now.Sub(sess.synced) / time.Second)
	sess.engine.TickN(ticks)
	sess.synced = sess.synced.Add(time.Duration(ticks) * time.Second)
	return sess.engine, nil
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
