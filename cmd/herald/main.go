package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	code := run(ctx, os.Args, &env{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		workDir: wd,
	})

	cancel()
	os.Exit(code)
}
