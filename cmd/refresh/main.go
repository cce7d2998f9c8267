// Package main runs one manual directory refresh attempt.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	refreshcmd "github.com/louisbranch/rolodex/internal/cmd/refresh"
)

func main() {
	cfg, err := refreshcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[REFRESH] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := refreshcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("refresh: %v", err)
	}
}
