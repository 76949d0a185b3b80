// Package main is the searchspace command line tool: validate, inspect,
// evaluate, export, and serve YAML search-space definitions.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/parametric-labs/searchspace/pkg/api"
	"github.com/parametric-labs/searchspace/pkg/export"
	"github.com/parametric-labs/searchspace/pkg/graph"
	"github.com/parametric-labs/searchspace/pkg/space"
	"github.com/parametric-labs/searchspace/pkg/store"
	"github.com/parametric-labs/searchspace/pkg/types"
	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "searchspace",
	Short: "Hyperparameter search space toolkit",
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("searchspace version {{.Version}}\n")

	rootCmd.AddCommand(checkCmd, paramsCmd, evalCmd, exportCmd, serveCmd)

	evalCmd.Flags().StringArrayP("bind", "b", nil, "Parameter binding NAME=VALUE (repeatable)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8080, env PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().String("dir", "", "Directory of space YAML files to preload (env SPACES_DIR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a search-space definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := loadFile(args[0])
		if err != nil {
			return err
		}
		params := sp.Params()
		fmt.Printf("%s: ok (%d free parameter(s))\n", args[0], len(params))
		return nil
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params FILE",
	Short: "List the free parameters of a search space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := loadFile(args[0])
		if err != nil {
			return err
		}
		exported, err := sp.Export()
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, exported.Params)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval FILE",
	Short: "Evaluate a search space under the given parameter bindings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := loadFile(args[0])
		if err != nil {
			return err
		}
		binds, _ := cmd.Flags().GetStringArray("bind")
		env, err := parseBindings(binds)
		if err != nil {
			return err
		}
		result, err := sp.Evaluate(env)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, result)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export a search space as an optimizer-facing node table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := loadFile(args[0])
		if err != nil {
			return err
		}
		g, root := sp.Graph()
		data, err := export.JSON(g, root)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			_, err = fmt.Println(string(data))
			return err
		}
		return os.WriteFile(out, append(data, '\n'), 0o644)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search-space REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := envOrDefault("PORT", "8080")
		if v, _ := cmd.Flags().GetInt("port"); v != 0 {
			port = strconv.Itoa(v)
		}
		host := envOrDefault("HOST", "0.0.0.0")
		if v, _ := cmd.Flags().GetString("host"); v != "" {
			host = v
		}
		dir := os.Getenv("SPACES_DIR")
		if v, _ := cmd.Flags().GetString("dir"); v != "" {
			dir = v
		}

		st := store.New()
		if dir != "" {
			if err := preload(st, dir); err != nil {
				return err
			}
		}

		srv := api.New(st)
		addr := fmt.Sprintf("%s:%s", host, port)
		log.Printf("searchspace API listening on %s", addr)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(addr) }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Printf("received %s, shutting down", sig)
			return srv.Shutdown()
		}
	},
}

func loadFile(path string) (*space.Space, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return space.Load(source)
}

// parseBindings turns NAME=VALUE flags into an evaluation environment,
// reading values as int, float, or bool before falling back to string.
func parseBindings(binds []string) (graph.Env, error) {
	env := make(graph.Env, len(binds))
	for _, b := range binds {
		name, raw, ok := strings.Cut(b, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid binding '%s', expected NAME=VALUE", b)
		}
		env[name] = parseScalar(raw)
	}
	return env, nil
}

func parseScalar(raw string) types.Value {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return types.NewInt(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return types.NewDouble(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return types.NewBool(b)
	}
	return types.NewString(raw)
}

// preload registers every YAML file of dir, named after its base name.
func preload(st *store.Store, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.y*ml"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := st.Create(name, string(source), ""); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		log.Printf("loaded space '%s' from %s", name, path)
	}
	return nil
}

func printJSON(w *os.File, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
