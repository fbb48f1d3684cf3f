package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maruel/plugindata/internal/docstore"
)

const sessionHelp = `commands:
  get KEY            print the value at KEY
  set KEY JSON       store a JSON value
  setstr KEY TEXT    store TEXT as a string
  exists KEY         report whether KEY is present
  delete KEY         remove KEY
  clear              remove every key
  keys               list keys
  dump               print the document
  save               write the document now
  load               reread the file
  quit               save and exit
`

func runCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a host session reading commands from stdin, with autosave",
		Long: "Run opens the store with autosave enabled and executes one command per\n" +
			"line from stdin until EOF, quit or a signal. The document is saved on exit.\n\n" + sessionHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			stderr := cmd.ErrOrStderr()
			s, err := cfg.open(ctx,
				docstore.WithLogger(slog.Default()),
				docstore.WithAutoSave(cfg.interval),
				docstore.WithErrorHandler(func(err error) {
					fmt.Fprintf(stderr, "autosave stopped: %v; use save to retry\n", err)
				}))
			if err != nil {
				return err
			}
			err = runSession(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
			cancel()
			s.WaitAutoSave()
			if err2 := s.Save(); err == nil {
				err = err2
			}
			return err
		},
	}
}

// runSession executes commands read from in until EOF, quit or ctx is done.
// Per-command errors are printed to out and don't end the session.
func runSession(ctx context.Context, s *docstore.Store, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return scanErr
			}
			quit, err := execLine(s, line, out)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func execLine(s *docstore.Store, line string, out io.Writer) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	op, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	key, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	needKey := func() error {
		if key == "" {
			return fmt.Errorf("%s: missing key", op)
		}
		return nil
	}
	switch op {
	case "get":
		if err := needKey(); err != nil {
			return false, err
		}
		raw, ok := s.GetRaw(key)
		if !ok {
			return false, fmt.Errorf("key %q not found", key)
		}
		fmt.Fprintln(out, string(raw))
	case "set", "setstr":
		if err := needKey(); err != nil {
			return false, err
		}
		if err := setValue(s, key, value, op == "setstr"); err != nil {
			return false, err
		}
	case "exists":
		if err := needKey(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, s.Exists(key))
	case "delete", "del", "rm":
		if err := needKey(); err != nil {
			return false, err
		}
		s.Delete(key)
	case "clear":
		s.Clear()
	case "keys":
		for _, k := range s.Keys() {
			fmt.Fprintln(out, k)
		}
	case "dump":
		data, err := render(s, "json")
		if err != nil {
			return false, err
		}
		_, _ = out.Write(data)
	case "save":
		return false, s.Save()
	case "load":
		return false, s.Load()
	case "help":
		fmt.Fprint(out, sessionHelp)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q; try help", op)
	}
	return false, nil
}
