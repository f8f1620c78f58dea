package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/fruitcatch/internal/config"
	"github.com/tomz197/fruitcatch/internal/draw"
	"github.com/tomz197/fruitcatch/internal/game"
	loopconfig "github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/client"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/store"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultDBPath      = "data/fruitcatch.db"
)

type app struct {
	hub    *server.Server
	cfg    game.Config
	logger *log.Logger
}

func main() {
	if err := config.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, config.GetEnv("LOG_LEVEL", "info"), "ssh")

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	dbPath := config.GetEnv("DB_PATH", defaultDBPath)
	logger.Info("config", "host", host, "port", port, "hostKey", hostKeyPath, "db", dbPath)

	cfg := game.DefaultConfig()
	if path := config.GetEnv("GAME_CONFIG", ""); path != "" {
		loaded, err := game.LoadConfig(path)
		if err != nil {
			logger.Fatal("game config", "err", err)
		}
		cfg = loaded
	}

	db, err := store.Open(dbPath)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer db.Close()

	// One hub shared by all SSH sessions.
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	a := &app{
		hub:    server.NewServer(store.NewUsers(db), logger),
		cfg:    cfg,
		logger: logger,
	}
	go a.hub.Run(hubCtx)

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			a.gameMiddleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting SSH server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down, notifying connected players")

	// Players get a shutdown screen; abandoned runs are recorded before the hub stops.
	a.hub.Shutdown(loopconfig.ShutdownTimeout)
	cancelHub()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

// gameMiddleware runs a game client for each SSH session.
func (a *app) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		a.logger.Info("game session", "user", sess.User(), "term", pty.Term,
			"width", pty.Window.Width, "height", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		cfg := a.cfg
		c := client.NewClient(a.hub, bufio.NewReader(sess), sess, client.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sessionUsername(sess.User()),
			GameConfig:   &cfg,
			Logger:       a.logger,
		})
		if err := c.Run(); err != nil {
			a.logger.Error("game error", "user", sess.User(), "err", err)
		}

		next(sess)
	}
}

// sessionUsername trims the SSH login name to the leaderboard limit.
func sessionUsername(user string) string {
	runes := []rune(user)
	if len(runes) == 0 {
		return "player"
	}
	if len(runes) > loopconfig.MaxUsernameLength {
		runes = runes[:loopconfig.MaxUsernameLength]
	}
	return string(runes)
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
