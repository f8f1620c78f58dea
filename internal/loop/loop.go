// Package loop runs a standalone terminal session against an in-process hub.
package loop

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/fruitcatch/internal/draw"
	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop/client"
	"github.com/tomz197/fruitcatch/internal/loop/server"
)

// drainTimeout bounds how long Run waits for the hub to record the last score.
const drainTimeout = 2 * time.Second

// Options configures a local session.
type Options struct {
	Username     string
	GameConfig   *game.Config
	Recorder     server.ScoreRecorder // nil keeps scores in memory
	Logger       *log.Logger
	TermSizeFunc draw.TermSizeFunc
}

// Run starts a hub, plays one terminal session on r/w, and returns when the player quits.
func Run(ctx context.Context, r *bufio.Reader, w io.Writer, opts Options) error {
	if opts.Username == "" {
		opts.Username = defaultUsername()
	}

	hub := server.NewServer(opts.Recorder, opts.Logger)
	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go hub.Run(hubCtx)

	c := client.NewClient(hub, r, w, client.ClientOptions{
		TermSizeFunc: opts.TermSizeFunc,
		Username:     opts.Username,
		GameConfig:   opts.GameConfig,
		Logger:       opts.Logger,
	})
	err := c.Run()

	// The client has queued its unregister after any final score; wait until the hub processed both.
	hub.Shutdown(drainTimeout)
	return err
}

func defaultUsername() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}
