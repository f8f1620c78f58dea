package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tomz197/fruitcatch/internal/api"
	"github.com/tomz197/fruitcatch/internal/config"
	"github.com/tomz197/fruitcatch/internal/game"
	loopconfig "github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
	"github.com/tomz197/fruitcatch/internal/network"
	"github.com/tomz197/fruitcatch/internal/store"
)

const (
	defaultHost     = "0.0.0.0"
	defaultPort     = "8080"
	defaultDBPath   = "data/fruitcatch.db"
	defaultModelURL = "./my_model/"
	defaultModelDir = "my_model"
)

//go:embed index.html
var htmlPage string

func main() {
	if err := config.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, config.GetEnv("LOG_LEVEL", "info"), "web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	dbPath := config.GetEnv("DB_PATH", defaultDBPath)
	modelDir := config.GetEnv("MODEL_DIR", defaultModelDir)
	if info, err := os.Stat(modelDir); err != nil || !info.IsDir() {
		logger.Warn("pose model directory not found, the page needs MODEL_URL pointing elsewhere", "dir", modelDir)
		modelDir = ""
	}
	page := strings.NewReplacer(
		"{{.SSHHost}}", config.GetEnv("SSH_DISPLAY_HOST", "your-server.com"),
		"{{.ModelURL}}", config.GetEnv("MODEL_URL", defaultModelURL),
	).Replace(htmlPage)

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
	users := store.NewUsers(db)

	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	hub := server.NewServer(users, logger)
	go hub.Run(hubCtx)

	router := api.NewRouter(
		api.NewHandler(users, logger),
		network.NewPlayHandler(hub, cfg, logger),
		[]byte(page),
		modelDir,
	)

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting web server", "url", "http://"+addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down, notifying connected players")

	hub.Shutdown(loopconfig.ShutdownTimeout)
	cancelHub()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
