package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maruel/plugindata/internal/docstore"
	"github.com/maruel/plugindata/internal/location"
)

// config holds the settings shared by every subcommand.
type config struct {
	root     string
	owner    string
	dataDir  string
	location string
	db       string
	logLevel string
	envFile  string
	interval time.Duration
	indent   bool
}

const envPrefix = "PLUGINDATA_"

func (c *config) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.root, "root", ".", "Host working directory, shared by all owners")
	f.StringVar(&c.owner, "owner", "plugindata", "Owner name")
	f.StringVar(&c.dataDir, "data-dir", "", "Owner private directory (default <root>/plugins/<owner>)")
	f.StringVar(&c.location, "location", "owner", "Where the database lives: shared or owner")
	f.StringVar(&c.db, "db", "data", "Database name; the file is <db>.json")
	f.StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&c.envFile, "env-file", ".env", "File with PLUGINDATA_* settings, ignored when missing")
	f.DurationVar(&c.interval, "autosave", docstore.DefaultAutoSaveInterval, "Autosave interval for run, 0 to disable")
	f.BoolVar(&c.indent, "indent", false, "Pretty-print the database file")
}

// applyEnv fills every flag that wasn't set on the command line from the env
// file, then from the process environment. The variable for --data-dir is
// PLUGINDATA_DATA_DIR.
func (c *config) applyEnv(cmd *cobra.Command) error {
	env := map[string]string{}
	if c.envFile != "" {
		m, err := godotenv.Read(c.envFile)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", c.envFile, err)
		}
		if m != nil {
			env = m
		}
	}
	flags := cmd.Flags()
	for _, name := range []string{"root", "owner", "data-dir", "location", "db", "log-level", "autosave", "indent"} {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		key := envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		v, ok := env[key]
		if !ok {
			v, ok = os.LookupEnv(key)
		}
		if !ok || v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
	}
	return nil
}

func (c *config) ownerDir() location.Dir {
	data := c.dataDir
	if data == "" {
		data = filepath.Join(c.root, "plugins", c.owner)
	}
	return location.Dir{OwnerName: c.owner, Root: c.root, Data: data}
}

func (c *config) codec() docstore.Codec {
	codec := docstore.DefaultCodec()
	if c.indent {
		codec.Indent = "  "
	}
	return codec
}

// open opens the configured store. Extra options are applied last.
func (c *config) open(ctx context.Context, opts ...docstore.Option) (*docstore.Store, error) {
	kind, err := location.ParseKind(c.location)
	if err != nil {
		return nil, err
	}
	opts = append([]docstore.Option{docstore.WithCodec(c.codec())}, opts...)
	return docstore.New(ctx, c.ownerDir(), c.db, kind, opts...)
}
