package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/store"
)

// GameServer is the interface clients use to talk to the arcade hub.
// Each client runs its own engine; the hub only tracks presence and scores.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	ReportScore(clientID, score int)
	ReportFinal(clientID, score int)
	GetSnapshot() *HubSnapshot
}

// ScoreRecorder persists final scores and serves the stored leaderboard.
type ScoreRecorder interface {
	UpdateBestScore(ctx context.Context, username string, score int) (bool, error)
	Rankings(ctx context.Context, limit int) ([]store.Ranking, error)
}

// Server is the shared hub every terminal and browser session registers with.
type Server struct {
	log      *log.Logger
	recorder ScoreRecorder
	board    *Leaderboard
	snapshot atomic.Pointer[HubSnapshot]

	clients      map[int]*ClientHandle
	nextClientID int
	requests     chan request // Registrations and finals, processed in order
	scoreCh      chan scoreReport
	mu           sync.RWMutex
}

var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID       int
	Username string
	Score    int  // Live score of the current run
	Playing  bool // Whether a run is in progress
	EventsCh chan ClientEvent
}

// ClientEvent is sent from the hub to a client.
type ClientEvent struct {
	Type  ClientEventType
	Score int // For EventPersonalBest
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
	EventPersonalBest
)

type requestKind int

const (
	requestRegister requestKind = iota
	requestUnregister
	requestFinal
)

type request struct {
	kind     requestKind
	handle   *ClientHandle
	clientID int
	score    int
}

type scoreReport struct {
	clientID int
	score    int
}

// NewServer creates a hub. recorder may be nil, in which case scores live in memory only.
func NewServer(recorder ScoreRecorder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		log:          logger.WithPrefix("hub"),
		recorder:     recorder,
		board:        NewLeaderboard(config.LeaderboardSize),
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		requests:     make(chan request, 64),
		scoreCh:      make(chan scoreReport, 256),
	}
	s.snapshot.Store(&HubSnapshot{TopScores: []TopScoreEntry{}})
	return s
}

// Run processes hub traffic at the hub tick rate. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	s.loadRankings(ctx)
	s.createSnapshot()

	ticker := time.NewTicker(config.HubTickTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Server) tick(ctx context.Context) {
	// Live scores first so a stale report cannot reopen a run finalized this tick.
	s.collectScores()
	s.processRequests(ctx)
	s.createSnapshot()
}

// Shutdown notifies all connected clients and waits for them to disconnect,
// up to the given timeout. The caller cancels the hub context afterwards.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			s.log.Warn("shutdown timeout reached", "remaining", s.clientCount())
			return
		case <-ticker.C:
			// Pending requests may still hold a final score or a late registration.
			if s.clientCount() == 0 && len(s.requests) == 0 {
				return
			}
		}
	}
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// RegisterClient registers a new client and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}
	s.requests <- request{kind: requestRegister, handle: handle}
	return handle
}

// UnregisterClient removes a client from the hub.
func (s *Server) UnregisterClient(clientID int) {
	s.requests <- request{kind: requestUnregister, clientID: clientID}
}

// ReportScore publishes a client's live score. Dropped when the hub is saturated.
func (s *Server) ReportScore(clientID, score int) {
	select {
	case s.scoreCh <- scoreReport{clientID: clientID, score: score}:
	default:
	}
}

// ReportFinal records the score of a finished run.
func (s *Server) ReportFinal(clientID, score int) {
	s.requests <- request{kind: requestFinal, clientID: clientID, score: score}
}

// GetSnapshot returns the current hub snapshot.
func (s *Server) GetSnapshot() *HubSnapshot {
	return s.snapshot.Load()
}

func (s *Server) loadRankings(ctx context.Context) {
	if s.recorder == nil {
		return
	}
	rankings, err := s.recorder.Rankings(ctx, config.LeaderboardSize)
	if err != nil {
		s.log.Error("load rankings", "err", err)
		return
	}
	s.board.Merge(rankings)
}

func (s *Server) processRequests(ctx context.Context) {
	for {
		select {
		case req := <-s.requests:
			switch req.kind {
			case requestRegister:
				s.mu.Lock()
				s.clients[req.handle.ID] = req.handle
				s.mu.Unlock()
				s.log.Debug("client registered", "id", req.handle.ID, "user", req.handle.Username)
			case requestUnregister:
				s.mu.Lock()
				if handle, ok := s.clients[req.clientID]; ok {
					close(handle.EventsCh)
					delete(s.clients, req.clientID)
					s.log.Debug("client unregistered", "id", req.clientID, "user", handle.Username)
				}
				s.mu.Unlock()
			case requestFinal:
				s.recordFinal(ctx, req.clientID, req.score)
			}
		default:
			return
		}
	}
}

func (s *Server) collectScores() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case r := <-s.scoreCh:
			if handle, ok := s.clients[r.clientID]; ok {
				handle.Score = r.score
				handle.Playing = true
			}
		default:
			return
		}
	}
}

func (s *Server) recordFinal(ctx context.Context, clientID, score int) {
	s.mu.Lock()
	handle, ok := s.clients[clientID]
	var username string
	if ok {
		handle.Score = score
		handle.Playing = false
		username = handle.Username
	}
	s.mu.Unlock()
	if username == "" {
		return
	}

	improved := s.board.Record(username, score)
	if s.recorder != nil {
		updated, err := s.recorder.UpdateBestScore(ctx, username, score)
		if err != nil {
			s.log.Error("persist score", "user", username, "score", score, "err", err)
		} else {
			improved = updated
		}
		s.loadRankings(ctx)
	}
	s.log.Info("run finished", "user", username, "score", score, "best", improved)

	if improved {
		s.mu.RLock()
		if h, ok := s.clients[clientID]; ok {
			select {
			case h.EventsCh <- ClientEvent{Type: EventPersonalBest, Score: score}:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func (s *Server) createSnapshot() {
	s.mu.RLock()
	live := make([]TopScoreEntry, 0, len(s.clients))
	playing := 0
	for _, handle := range s.clients {
		if handle.Playing {
			playing++
			live = append(live, TopScoreEntry{Username: handle.Username, Score: handle.Score, Live: true, clientID: handle.ID})
		}
	}
	players := len(s.clients)
	s.mu.RUnlock()

	s.snapshot.Store(&HubSnapshot{
		Players:   players,
		Playing:   playing,
		TopScores: s.board.Top(live),
	})
}
