// Package session implements the periodic liveness heartbeat. Grounded
// on original_source/src/actors/session.rs (SessionActor, 30s interval,
// AgentGroupInfo).
package session

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schnooty-agent/internal/shared"
)

const heartbeatInterval = 30 * time.Second

// Poster is the subset of the API client the Session needs.
type Poster interface {
	PutSession(ctx context.Context, session shared.Session) (shared.Session, error)
}

// Subscriber receives the API's echoed Session on every successful beat.
type Subscriber func(shared.Session)

// Session sends a periodic heartbeat. A missing base URL (api == nil)
// disables the component silently per spec §4.7.
type Session struct {
	mu          sync.Mutex
	name        string
	agentID     string
	groupID     string
	sessionID   string
	startedAt   time.Time
	api         Poster
	subscribers []Subscriber
	logger      *zap.SugaredLogger
	cancel      context.CancelFunc
}

// New builds a Session. A nil api silently disables heartbeating.
func New(name, agentID, groupID string, api Poster, logger *zap.SugaredLogger) *Session {
	agentID, groupID = resolveIdentity(agentID, groupID)

	return &Session{
		name:      name,
		agentID:   agentID,
		groupID:   groupID,
		sessionID: uuid.NewString(),
		startedAt: time.Now().UTC(),
		api:       api,
		logger:    logger.With("component", "session"),
	}
}

func resolveIdentity(agentID, groupID string) (string, string) {
	if agentID == "" {
		agentID, _ = os.Hostname()
	}
	if groupID == "" {
		groupID, _ = os.Hostname()
	}
	return agentID, groupID
}

// ApplyIdentity updates the name/agentID/groupID carried on every future
// heartbeat. Called by the Configurator when a new Config supersedes the
// prior one, per spec §4.8's Config->Session fan-out leg.
func (s *Session) ApplyIdentity(name, agentID, groupID string) {
	agentID, groupID = resolveIdentity(agentID, groupID)

	s.mu.Lock()
	s.name = name
	s.agentID = agentID
	s.groupID = groupID
	s.mu.Unlock()
}

// AddSubscriber registers a Subscriber for the echoed Session on success.
func (s *Session) AddSubscriber(sub Subscriber) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
}

// Start begins the heartbeat loop. No-op if api is nil.
func (s *Session) Start(ctx context.Context) {
	if s.api == nil {
		s.logger.Infow("no API base URL configured, session heartbeat disabled")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(runCtx)
}

// Stop ends the heartbeat loop.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) loop(ctx context.Context) {
	s.beat(ctx)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.beat(ctx)
		}
	}
}

func (s *Session) beat(ctx context.Context) {
	hostname, _ := os.Hostname()

	s.mu.Lock()
	name, agentID, groupID := s.name, s.agentID, s.groupID
	s.mu.Unlock()

	req := shared.Session{
		Name:        name,
		AgentID:     agentID,
		GroupID:     groupID,
		SessionID:   s.sessionID,
		Hostname:    hostname,
		Platform:    runtime.GOOS,
		LastUpdated: time.Now().UTC(),
		StartedAt:   s.startedAt,
	}

	echoed, err := s.api.PutSession(ctx, req)
	if err != nil {
		s.logger.Errorw("heartbeat failed", "error", err)
		return
	}

	s.mu.Lock()
	subs := append([]Subscriber(nil), s.subscribers...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub(echoed)
	}
}
