// Package network runs browser play sessions over websockets. The browser
// classifies poses and sends predictions; the server owns the engine.
package network

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/pose"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8 << 10
	// Outbound queue length. State frames are dropped when it is full.
	sendBuffer = 256
)

// Inbound message types.
const (
	MessageStart = "start"
	MessageStop  = "stop"
	MessagePose  = "pose"
)

// Outbound message types.
const (
	MessageState    = "state"
	MessageScore    = "score"
	MessageLives    = "lives"
	MessageEnd      = "end"
	MessageBest     = "best"
	MessageShutdown = "shutdown"
)

// ClientMessage is what the browser sends.
type ClientMessage struct {
	Type        string            `json:"type"`
	Predictions []pose.Prediction `json:"predictions,omitempty"`
	Width       float64           `json:"width,omitempty"`
	Height      float64           `json:"height,omitempty"`
}

// StateMessage carries one simulation frame.
type StateMessage struct {
	Type  string        `json:"type"`
	State game.Snapshot `json:"state"`
	Pose  string        `json:"pose,omitempty"`
}

// ValueMessage carries an observer event or a hub notification.
type ValueMessage struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type command struct {
	kind          string
	width, height float64
}

// Session is one browser connection. The engine is owned by the run goroutine;
// the read pump only touches the stabilizer and poseName.
type Session struct {
	conn       *websocket.Conn
	hub        server.GameServer
	handle     *server.ClientHandle
	engine     *game.Engine
	stabilizer *pose.Stabilizer
	log        *log.Logger

	poseName atomic.Pointer[string] // Latest stabilized class
	commands chan command
	send     chan []byte
	done     chan struct{}

	viewWidth, viewHeight float64
}

// NewSession registers a session with the hub.
func NewSession(conn *websocket.Conn, hub server.GameServer, username string, cfg game.Config, logger *log.Logger) *Session {
	s := &Session{
		conn:       conn,
		hub:        hub,
		handle:     hub.RegisterClient(username),
		stabilizer: pose.NewStabilizer(pose.DefaultThreshold, pose.DefaultSmoothingFrames),
		log:        logger.With("user", username),
		commands:   make(chan command, 8),
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		viewWidth:  cfg.DefaultViewWidth,
		viewHeight: cfg.DefaultViewHeight,
	}
	s.poseName.Store(new(string))
	s.engine = game.NewEngine(cfg, game.WithObserver(game.ObserverFuncs{
		OnScore: s.onScore,
		OnLives: s.onLives,
		OnEnd:   s.onEnd,
	}))
	return s
}

// Serve starts the pumps and the simulation. Returns immediately.
func (s *Session) Serve() {
	go s.writePump()
	go s.readPump()
	go s.run()
}

// run ticks the engine at the client frame rate until the peer goes away
// or the hub shuts down.
func (s *Session) run() {
	ticker := time.NewTicker(config.ClientTargetFrameTime)
	defer ticker.Stop()
	defer s.finish()

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		case ev, ok := <-s.handle.EventsCh:
			if !ok {
				return
			}
			switch ev.Type {
			case server.EventServerShutdown:
				s.enqueue(ValueMessage{Type: MessageShutdown, Value: int(config.ShutdownDisplaySeconds)})
				return
			case server.EventPersonalBest:
				s.enqueue(ValueMessage{Type: MessageBest, Value: ev.Score})
			}
		case <-ticker.C:
			if !s.engine.Active() {
				continue
			}
			s.engine.Update(pose.ToSteering(*s.poseName.Load()), s.viewWidth, s.viewHeight)
			s.sendState()
		}
	}
}

func (s *Session) handleCommand(cmd command) {
	switch cmd.kind {
	case MessageStart:
		if cmd.width > 0 && cmd.height > 0 {
			s.viewWidth, s.viewHeight = cmd.width, cmd.height
		}
		s.abandonRun()
		s.engine.Start()
		s.log.Debug("run started")
	case MessageStop:
		s.abandonRun()
	}
	s.sendState()
}

// abandonRun ends a run in progress and reports it as final.
func (s *Session) abandonRun() {
	if !s.engine.Active() {
		return
	}
	s.engine.Stop()
	s.hub.ReportFinal(s.handle.ID, s.engine.Snapshot().Score)
}

func (s *Session) finish() {
	s.abandonRun()
	s.hub.UnregisterClient(s.handle.ID)
	// Closing send makes the write pump send a close frame and drop the connection.
	close(s.send)
	s.log.Debug("session closed")
}

func (s *Session) sendState() {
	s.enqueueFrame(StateMessage{
		Type:  MessageState,
		State: s.engine.Snapshot(),
		Pose:  *s.poseName.Load(),
	})
}

func (s *Session) onScore(score int) {
	s.hub.ReportScore(s.handle.ID, score)
	s.enqueue(ValueMessage{Type: MessageScore, Value: score})
}

func (s *Session) onLives(lives int) {
	s.enqueue(ValueMessage{Type: MessageLives, Value: lives})
}

func (s *Session) onEnd(finalScore int) {
	s.hub.ReportFinal(s.handle.ID, finalScore)
	s.enqueue(ValueMessage{Type: MessageEnd, Value: finalScore})
}

// enqueueFrame queues a state frame, dropping it when the queue is full.
// The next tick supersedes it.
func (s *Session) enqueueFrame(v any) {
	b, ok := s.encode(v)
	if !ok {
		return
	}
	select {
	case s.send <- b:
	default:
		s.log.Debug("send queue full, dropping state frame")
	}
}

// enqueue queues an event. Events are never dropped; a peer that does not
// drain the queue within writeWait is disconnected.
// Only the run goroutine enqueues, and it also closes send.
func (s *Session) enqueue(v any) {
	b, ok := s.encode(v)
	if !ok {
		return
	}
	select {
	case s.send <- b:
		return
	default:
	}

	timer := time.NewTimer(writeWait)
	defer timer.Stop()
	select {
	case s.send <- b:
	case <-s.done:
	case <-timer.C:
		s.log.Warn("peer too slow, closing session")
		_ = s.conn.Close()
	}
}

func (s *Session) encode(v any) ([]byte, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode message", "err", err)
		return nil, false
	}
	return b, true
}

// readPump decodes browser messages. Pose predictions become the steering
// signal read by the next tick.
func (s *Session) readPump() {
	defer close(s.done)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("read", "err", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn("malformed message", "err", err)
			continue
		}

		switch msg.Type {
		case MessagePose:
			res := s.stabilizer.Stabilize(msg.Predictions)
			s.poseName.Store(&res.ClassName)
		case MessageStart, MessageStop:
			s.stabilizer.Reset()
			s.poseName.Store(new(string))
			select {
			case s.commands <- command{kind: msg.Type, width: msg.Width, height: msg.Height}:
			case <-time.After(writeWait):
				s.log.Warn("command dropped", "type", msg.Type)
			}
		default:
			s.log.Warn("unknown message type", "type", msg.Type)
		}
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
