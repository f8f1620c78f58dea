package client

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/fruitcatch/internal/input"
	"github.com/tomz197/fruitcatch/internal/loop/server"
)

type fakeHub struct {
	mu     sync.Mutex
	handle *server.ClientHandle
	scores []int
	finals []int
	gone   bool
}

func (h *fakeHub) RegisterClient(username string) *server.ClientHandle {
	h.handle = &server.ClientHandle{ID: 7, Username: username, EventsCh: make(chan server.ClientEvent, 4)}
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
	return &server.HubSnapshot{
		Players:   1,
		TopScores: []server.TopScoreEntry{{Username: "alice", Score: 900, Live: true}},
	}
}

func newTestClient(t *testing.T, keys string) (*Client, *fakeHub, *bytes.Buffer) {
	t.Helper()
	hub := &fakeHub{}
	out := &bytes.Buffer{}
	c := NewClient(hub, bufio.NewReader(strings.NewReader(keys)), out, ClientOptions{
		Username:     "alice",
		TermSizeFunc: func() (int, int, error) { return 100, 40, nil },
		Logger:       log.New(io.Discard),
		Rand:         rand.New(rand.NewSource(3)),
	})
	return c, hub, out
}

func TestStartGameReportsInitialScore(t *testing.T) {
	c, hub, _ := newTestClient(t, "")
	c.startGame()

	if c.state.GameState != GameStatePlaying {
		t.Fatalf("state = %v, want playing", c.state.GameState)
	}
	if len(hub.scores) != 1 || hub.scores[0] != 0 {
		t.Fatalf("scores = %v, want [0]", hub.scores)
	}
	if c.particles.Len() != 0 {
		t.Fatalf("start spawned %d particles", c.particles.Len())
	}
}

func TestScoreGainSpawnsEffects(t *testing.T) {
	c, hub, _ := newTestClient(t, "")
	c.startGame()

	c.onScore(100)
	c.applyFeedback()

	if got := hub.scores[len(hub.scores)-1]; got != 100 {
		t.Fatalf("last reported score = %d, want 100", got)
	}
	if c.particles.Len() == 0 || c.popups.Len() != 1 {
		t.Fatalf("particles=%d popups=%d, want burst and one popup", c.particles.Len(), c.popups.Len())
	}
}

func TestLifeLostFlashesBasket(t *testing.T) {
	c, _, _ := newTestClient(t, "")
	c.startGame()

	c.onLives(c.state.LastLives - 1)
	c.applyFeedback()
	if c.state.HurtTime <= 0 {
		t.Fatalf("hurt flash not started")
	}
}

func TestRunEndReportsFinal(t *testing.T) {
	c, hub, _ := newTestClient(t, "")
	c.startGame()

	c.onEnd(1250)
	c.applyFeedback()

	if c.state.GameState != GameStateGameOver {
		t.Fatalf("state = %v, want game over", c.state.GameState)
	}
	if len(hub.finals) != 1 || hub.finals[0] != 1250 {
		t.Fatalf("finals = %v, want [1250]", hub.finals)
	}
	if c.restartLock <= 0 {
		t.Fatalf("restart lock not armed")
	}
}

func TestShutdownAbandonsActiveRun(t *testing.T) {
	c, hub, _ := newTestClient(t, "")
	c.startGame()

	hub.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	c.processServerEvents()

	if c.state.GameState != GameStateShutdown {
		t.Fatalf("state = %v, want shutdown", c.state.GameState)
	}
	if c.engine.Active() {
		t.Fatalf("engine still active after shutdown")
	}
	if len(hub.finals) != 1 {
		t.Fatalf("finals = %v, want one abandoned run", hub.finals)
	}
}

func TestPersonalBestEvent(t *testing.T) {
	c, hub, _ := newTestClient(t, "")
	hub.handle.EventsCh <- server.ClientEvent{Type: server.EventPersonalBest, Score: 10}
	c.processServerEvents()
	if !c.state.PersonalBest {
		t.Fatalf("personal best flag not set")
	}
}

func TestDrawFrameWritesHUD(t *testing.T) {
	c, _, out := newTestClient(t, "")
	c.startGame()
	c.state.Input = input.Input{}
	c.updatePlayingState()

	if err := c.drawFrame(); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
	for _, want := range []string{"Score: 0", "Lives: ", "TOP SCORES", "alice"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("frame missing %q", want)
		}
	}
}

func TestRunQuitsOnKeyAndUnregisters(t *testing.T) {
	c, hub, _ := newTestClient(t, "q")
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if !hub.gone {
		t.Fatalf("client did not unregister")
	}
}
