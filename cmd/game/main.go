package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/tomz197/fruitcatch/internal/config"
	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop"
	"github.com/tomz197/fruitcatch/internal/store"
)

func main() {
	if err := config.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	// Raw mode owns stdout; logs go to stderr and are usually redirected.
	logger := config.NewLogger(os.Stderr, config.GetEnv("LOG_LEVEL", "warn"), "game")

	opts := loop.Options{Logger: logger}

	if path := config.GetEnv("GAME_CONFIG", ""); path != "" {
		cfg, err := game.LoadConfig(path)
		if err != nil {
			logger.Fatal("game config", "err", err)
		}
		opts.GameConfig = &cfg
	}

	if dbPath := config.GetEnv("DB_PATH", ""); dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			logger.Fatal("open database", "err", err)
		}
		defer db.Close()
		opts.Recorder = store.NewUsers(db)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	if err := loop.Run(context.Background(), reader, os.Stdout, opts); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
