package network

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/pose"
)

type fakeHub struct {
	mu       sync.Mutex
	handle   *server.ClientHandle
	username string
	scores   []int
	finals   []int
	gone     bool
}

func (h *fakeHub) RegisterClient(username string) *server.ClientHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.username = username
	h.handle = &server.ClientHandle{ID: 3, Username: username, EventsCh: make(chan server.ClientEvent, 4)}
	return h.handle
}

func (h *fakeHub) UnregisterClient(int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gone = true
}

func (h *fakeHub) ReportScore(_, score int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scores = append(h.scores, score)
}

func (h *fakeHub) ReportFinal(_, score int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finals = append(h.finals, score)
}

func (h *fakeHub) GetSnapshot() *server.HubSnapshot {
	return &server.HubSnapshot{}
}

func (h *fakeHub) events() chan server.ClientEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handle.EventsCh
}

func (h *fakeHub) check(f func(h *fakeHub) bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return f(h)
}

type wireMessage struct {
	Type  string          `json:"type"`
	Value int             `json:"value"`
	State json.RawMessage `json:"state"`
	Pose  string          `json:"pose"`
}

func dial(t *testing.T, hub *fakeHub, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewPlayHandler(hub, game.DefaultConfig(), log.New(io.Discard)))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/play?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want string, match func(wireMessage) bool) wireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if msg.Type == want && (match == nil || match(msg)) {
			return msg
		}
	}
}

func phaseOf(msg wireMessage) string {
	var st struct {
		Phase string `json:"phase"`
	}
	_ = json.Unmarshal(msg.State, &st)
	return st.Phase
}

func basketLane(t *testing.T, msg wireMessage) int {
	t.Helper()
	var st struct {
		Basket struct {
			Lane int `json:"lane"`
		} `json:"basket"`
	}
	if err := json.Unmarshal(msg.State, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st.Basket.Lane
}

func sendPose(t *testing.T, conn *websocket.Conn, class string, prob float64) {
	t.Helper()
	msg := ClientMessage{Type: MessagePose, Predictions: []pose.Prediction{{ClassName: class, Probability: prob}}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write pose: %v", err)
	}
}

func waitFor(t *testing.T, hub *fakeHub, what string, f func(h *fakeHub) bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !hub.check(f) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPlayRequiresUsername(t *testing.T) {
	h := NewPlayHandler(&fakeHub{}, game.DefaultConfig(), log.New(io.Discard))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/play?username=%20", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStartStreamsStateAndStopReportsFinal(t *testing.T) {
	hub := &fakeHub{}
	conn := dial(t, hub, "username=ana")

	if err := conn.WriteJSON(ClientMessage{Type: MessageStart}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	lives := readUntil(t, conn, MessageLives, nil)
	if lives.Value != game.DefaultConfig().InitialLives {
		t.Fatalf("lives = %d", lives.Value)
	}
	readUntil(t, conn, MessageState, func(m wireMessage) bool { return phaseOf(m) == "active" })

	pred := ClientMessage{Type: MessagePose, Predictions: []pose.Prediction{{ClassName: "Left", Probability: 0.95}}}
	if err := conn.WriteJSON(pred); err != nil {
		t.Fatalf("write pose: %v", err)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MessageStop}); err != nil {
		t.Fatalf("write stop: %v", err)
	}
	readUntil(t, conn, MessageState, func(m wireMessage) bool { return phaseOf(m) == "ended" })
	waitFor(t, hub, "final score", func(h *fakeHub) bool { return len(h.finals) == 1 })

	if !hub.check(func(h *fakeHub) bool { return h.username == "ana" && len(h.scores) > 0 }) {
		t.Fatal("expected registration and a live score report")
	}
}

func TestPoseSteersBasket(t *testing.T) {
	conn := dial(t, &fakeHub{}, "username=eve")
	if err := conn.WriteJSON(ClientMessage{Type: MessageStart}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	readUntil(t, conn, MessageState, func(m wireMessage) bool { return phaseOf(m) == "active" })

	// Below the confidence threshold: the window holds no majority.
	sendPose(t, conn, "Left", 0.5)
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 20; i++ {
		msg := readUntil(t, conn, MessageState, nil)
		if lane := basketLane(t, msg); lane != game.LaneCenter {
			t.Fatalf("lane = %d after a low-confidence pose, want %d", lane, game.LaneCenter)
		}
	}

	// One more confident frame is still short of a majority of five.
	sendPose(t, conn, "Left", 0.95)
	sendPose(t, conn, "Left", 0.95)
	time.Sleep(100 * time.Millisecond)
	if lane := basketLane(t, readUntil(t, conn, MessageState, nil)); lane != game.LaneCenter {
		t.Fatalf("lane = %d with two of five frames, want %d", lane, game.LaneCenter)
	}

	sendPose(t, conn, "Left", 0.95)
	msg := readUntil(t, conn, MessageState, func(m wireMessage) bool { return basketLane(t, m) == game.LaneLeft })
	if msg.Pose != "Left" {
		t.Fatalf("pose = %q, want Left", msg.Pose)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := &fakeHub{}
	conn := dial(t, hub, "username=bo")
	if err := conn.WriteJSON(ClientMessage{Type: MessageStart}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	readUntil(t, conn, MessageState, nil)
	conn.Close()

	waitFor(t, hub, "unregister", func(h *fakeHub) bool { return h.gone })
	if !hub.check(func(h *fakeHub) bool { return len(h.finals) == 1 }) {
		t.Fatal("abandoned run should be reported as final")
	}
}

func TestShutdownEventClosesSession(t *testing.T) {
	hub := &fakeHub{}
	conn := dial(t, hub, "username=cy")
	waitFor(t, hub, "register", func(h *fakeHub) bool { return h.handle != nil })

	hub.events() <- server.ClientEvent{Type: server.EventServerShutdown}
	readUntil(t, conn, MessageShutdown, nil)
	waitFor(t, hub, "unregister", func(h *fakeHub) bool { return h.gone })
}

func TestPersonalBestIsForwarded(t *testing.T) {
	hub := &fakeHub{}
	conn := dial(t, hub, "username=dee")
	waitFor(t, hub, "register", func(h *fakeHub) bool { return h.handle != nil })

	hub.events() <- server.ClientEvent{Type: server.EventPersonalBest, Score: 450}
	if got := readUntil(t, conn, MessageBest, nil); got.Value != 450 {
		t.Fatalf("best = %d, want 450", got.Value)
	}
}

func TestFullQueueDropsFramesButKeepsEvents(t *testing.T) {
	s := &Session{
		send: make(chan []byte, 1),
		done: make(chan struct{}),
		log:  log.New(io.Discard),
	}
	s.send <- []byte(`{"type":"lives","value":2}`)

	s.enqueueFrame(StateMessage{Type: MessageState})
	if len(s.send) != 1 {
		t.Fatalf("queue length = %d, want 1", len(s.send))
	}

	var (
		wg  sync.WaitGroup
		got []string
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond)
		for i := 0; i < 2; i++ {
			var msg wireMessage
			if err := json.Unmarshal(<-s.send, &msg); err != nil {
				t.Errorf("decode: %v", err)
				return
			}
			got = append(got, msg.Type)
		}
	}()

	s.enqueue(ValueMessage{Type: MessageEnd, Value: 5})
	wg.Wait()
	if len(got) != 2 || got[0] != MessageLives || got[1] != MessageEnd {
		t.Fatalf("delivered %v, want [lives end]", got)
	}
}

func TestBrowserRunsAreTimed(t *testing.T) {
	conn := dial(t, &fakeHub{}, "username=fay")
	if err := conn.WriteJSON(ClientMessage{Type: MessageStart}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	msg := readUntil(t, conn, MessageState, func(m wireMessage) bool { return phaseOf(m) == "active" })
	var st struct {
		FramesRemaining int `json:"framesRemaining"`
	}
	if err := json.Unmarshal(msg.State, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	limit := DefaultRunSeconds * config.ClientTargetFPS
	if st.FramesRemaining <= 0 || st.FramesRemaining > limit {
		t.Fatalf("framesRemaining = %d, want within (0, %d]", st.FramesRemaining, limit)
	}
}

func TestConfiguredTimeLimitIsKept(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.TimeLimitFrames = 90
	h := NewPlayHandler(&fakeHub{}, cfg, log.New(io.Discard))
	if h.cfg.TimeLimitFrames != 90 {
		t.Fatalf("TimeLimitFrames = %d, want 90", h.cfg.TimeLimitFrames)
	}
}

func TestSanitizeUsername(t *testing.T) {
	if got := sanitizeUsername("  ana  "); got != "ana" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("x", 40)
	if got := sanitizeUsername(long); len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
}
