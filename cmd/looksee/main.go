package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jward/looksee"
	"github.com/spf13/cobra"
)

var (
	flagFormat   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "looksee",
	Short:         "Recursive module scanner for Risor script trees",
	Long:          "Looksee walks a package of Risor modules, loads each one, and prints every top-level object matching the configured predicate. With --db, matches are also recorded to a SQLite registry.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log verbosity (default: LOOKSEE_LOG_LEVEL or info)")

	rootCmd.AddCommand(scanCmd)
}

var (
	flagRoot       string
	flagDB         string
	flagRequireKey string
)

var scanCmd = &cobra.Command{
	Use:   "scan <dotted.path>",
	Short: "Scan a package tree and print the matched objects",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagRoot, "root", ".", "directory dotted paths resolve under")
	scanCmd.Flags().StringVar(&flagDB, "db", "", "record matches to this SQLite database")
	scanCmd.Flags().StringVar(&flagRequireKey, "require-key", "", "match only mappings containing this key")
}

func runScan(cmd *cobra.Command, args []string) error {
	start := time.Now()

	opts := []looksee.Option{
		looksee.WithRoot(flagRoot),
		looksee.WithLogger(looksee.NewLogrusLogger(flagLogLevel, os.Stderr)),
		looksee.WithCallback(func(name string, obj any, ctx looksee.Context) error {
			ctx[name] = obj
			return nil
		}),
	}
	if flagRequireKey != "" {
		opts = append(opts, looksee.WithPredicate(requireKey(flagRequireKey)))
	}
	if flagDB != "" {
		rec, err := looksee.NewRecorder(flagDB)
		if err != nil {
			return fmt.Errorf("opening %s: %w", flagDB, err)
		}
		defer rec.Close()
		opts = append(opts, looksee.WithRecorder(rec))
	}

	found, err := looksee.New(opts...).Scan(context.Background(), args[0], nil)
	if err != nil {
		return err
	}
	if err := output(found); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Scanned %s in %s (%d match(es))\n",
		args[0], time.Since(start).Round(time.Millisecond), len(found))
	return nil
}

// requireKey matches mappings that contain the given key, the predicate
// shape most registry scans want.
func requireKey(key string) looksee.Predicate {
	return func(obj any) bool {
		m, ok := obj.(map[string]any)
		if !ok {
			return false
		}
		_, ok = m[key]
		return ok
	}
}

func validateFormat(format string) error {
	switch format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid format %q (expected json or text)", format)
	}
}

func output(found looksee.Context) error {
	switch flagFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	default:
		names := make([]string, 0, len(found))
		for name := range found {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s: %v\n", name, found[name])
		}
		return nil
	}
}
