package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maruel/plugindata/internal/docstore"
	"github.com/maruel/plugindata/internal/watch"
)

func newRootCmd() *cobra.Command {
	cfg := &config{}
	root := &cobra.Command{
		Use:           "plugindata",
		Short:         "Inspect and edit a plugin data store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.applyEnv(cmd); err != nil {
				return err
			}
			level, err := parseLevel(cfg.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(os.Stderr, level))
			return nil
		},
	}
	cfg.register(root)
	root.AddCommand(
		getCmd(cfg),
		setCmd(cfg),
		existsCmd(cfg),
		deleteCmd(cfg),
		clearCmd(cfg),
		keysCmd(cfg),
		dumpCmd(cfg),
		watchCmd(cfg),
		runCmd(cfg),
		versionCmd(),
	)
	return root
}

// mutation opens the store, applies fn and saves the result.
func mutation(cfg *config, fn func(s *docstore.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := cfg.open(cmd.Context())
		if err != nil {
			return err
		}
		if err := fn(s, args); err != nil {
			return err
		}
		return s.Save()
	}
}

func getCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the JSON value stored at KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.open(cmd.Context())
			if err != nil {
				return err
			}
			raw, ok := s.GetRaw(args[0])
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
}

func setCmd(cfg *config) *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE, a JSON text, at KEY and save",
		Args:  cobra.ExactArgs(2),
		RunE: mutation(cfg, func(s *docstore.Store, args []string) error {
			return setValue(s, args[0], args[1], asString)
		}),
	}
	cmd.Flags().BoolVarP(&asString, "string", "s", false, "Store VALUE as a JSON string instead of parsing it")
	return cmd
}

func setValue(s *docstore.Store, key, value string, asString bool) error {
	if asString {
		return s.Set(key, value)
	}
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("value for %q is not valid JSON; use --string to store text", key)
	}
	return s.Set(key, json.RawMessage(value))
}

func existsCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "exists KEY",
		Short: "Print whether KEY is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.open(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.Exists(args[0]))
			return err
		},
	}
}

func deleteCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"del", "rm"},
		Short:   "Remove KEY and save",
		Args:    cobra.ExactArgs(1),
		RunE: mutation(cfg, func(s *docstore.Store, args []string) error {
			s.Delete(args[0])
			return nil
		}),
	}
}

func clearCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every key and save",
		Args:  cobra.NoArgs,
		RunE: mutation(cfg, func(s *docstore.Store, _ []string) error {
			s.Clear()
			return nil
		}),
	}
}

func keysCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List keys in document order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.open(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range s.Keys() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), k); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func dumpCmd(cfg *config) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.open(cmd.Context())
			if err != nil {
				return err
			}
			out, err := render(s, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "json", "Output format: json or yaml")
	return cmd
}

// render formats the document of s as indented JSON or as YAML.
func render(s *docstore.Store, format string) ([]byte, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case "yaml":
		node, err := jsonToYAML(data)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func watchCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the document each time its file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := cfg.open(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			show := func() {
				data, err := render(s, "json")
				if err != nil {
					slog.WarnContext(ctx, "Failed to render document", "err", err)
					return
				}
				_, _ = out.Write(data)
			}
			show()
			err = watch.File(ctx, s.Path(), func() {
				if err := s.Load(); err != nil {
					slog.WarnContext(ctx, "Failed to reload document", "path", s.Path(), "err", err)
					return
				}
				show()
			})
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "Watching", "path", s.Path())
			<-ctx.Done()
			return nil
		},
	}
}
