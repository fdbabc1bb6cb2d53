// Command termstack runs the server side of the stack engine: it owns the
// client sessions, their coordinators, and the scrollback search index, and
// listens for shell-integration clients on a Unix socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/karlb/termstack/config"
	"github.com/karlb/termstack/scrollback"
	"github.com/karlb/termstack/server"
	"github.com/karlb/termstack/windowing"
)

func main() {
	socketPath := flag.String("socket", "/tmp/termstack.sock", "Unix socket path")
	scrollbackDB := flag.String("scrollback-db", "", "Path to the scrollback search database (empty disables search)")
	configDir := flag.String("config-dir", "", "Override the config directory (default: OS user config dir)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if *configDir != "" {
		config.SetDir(*configDir)
	}
	cfg := config.System()
	if err := config.Err(); err != nil {
		log.Printf("termstack: using default config: %v", err)
	}
	if *verbose {
		log.Printf("termstack: loaded config: %+v", cfg)
	}

	if fg, bg, err := windowing.QueryHostDefaultColors(); err != nil {
		log.Printf("termstack: could not query host terminal colors, launcher cells fall back to defaults: %v", err)
	} else if *verbose {
		log.Printf("termstack: host terminal default colors fg=%v bg=%v", fg, bg)
	}

	var index scrollback.Index
	if *scrollbackDB != "" {
		idx, err := scrollback.Open(scrollback.DefaultConfig(*scrollbackDB))
		if err != nil {
			fmt.Fprintf(os.Stderr, "termstack: failed to open scrollback index at %s: %v\n", *scrollbackDB, err)
			os.Exit(1)
		}
		defer idx.Close()
		index = idx
	}

	manager := server.NewManagerWithIndex(index)
	manager.SetConfig(cfg)
	manager.SetMetricsObservers(server.NewPublishLogger(log.Default()), server.NewSessionStatsLogger(log.Default()))
	srv := server.NewServer(*socketPath, manager)

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "termstack: server error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("termstack listening on %s\n", *socketPath)
	if index != nil {
		fmt.Printf("scrollback search enabled at %s\n", *scrollbackDB)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("termstack: shutdown error: %v", err)
	}
	fmt.Println("termstack stopped")
}
