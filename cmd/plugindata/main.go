// Package main is the entry point for the plugindata tool.
//
// plugindata opens a document store the same way an embedding host does and
// exposes its operations from the command line: reading and writing keys,
// dumping the document, watching the file for changes, and running an
// interactive host session with autosave enabled. Configuration comes from
// flags, overridden for unset flags by a .env file and PLUGINDATA_* variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "plugindata: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
