/*
Demo application drawing rows of triangles, squares and stars with the
engine package.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkscene/engine"
	"github.com/spaghettifunk/vkscene/engine/config"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := core.NewLogger(os.Stderr, cfg.Application.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tb := testbed.NewTestGame(logger.With("testbed"))

	e, err := engine.New(cfg, tb.Game, logger)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		logger.Fatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// The handler only flips the stop flag, the run loop releases everything.
	go func() {
		<-sigCh
		e.Stop()
	}()

	if err := e.Run(); err != nil {
		logger.Fatal(err.Error())
	}
}

// loadConfig falls back to the defaults when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}
