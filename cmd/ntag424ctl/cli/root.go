// Package cli implements the ntag424ctl command tree: reader selection,
// authentication, file settings, key changes, SDM provisioning, and key
// store management, built on cobra.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ntag424 "github.com/nikeee/go-ntag424"
)

const version = "0.1.0"

var (
	readerIndex int
	verbose     bool
	logFormat   string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:     "ntag424ctl",
	Short:   "NTAG 424 DNA provisioning and diagnostics tool",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		if logFormat == "json" {
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
		} else {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&readerIndex, "reader", "r", -1, "PC/SC reader index (auto-selected if only one is present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "accepted but has no effect; results are always rendered as text/tables")

	rootCmd.AddCommand(readersCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(sdmCmd)
	rootCmd.AddCommand(keystoreCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// connectTag auto-selects a reader when none was specified and exactly one
// is attached, connects, and wraps the connection in a Tag.
func connectTag() (*ntag424.Connection, *ntag424.Tag, error) {
	idx := readerIndex
	if idx < 0 {
		readers, err := ntag424.ListReaders()
		if err != nil {
			return nil, nil, fmt.Errorf("list readers: %w", err)
		}
		switch len(readers) {
		case 0:
			return nil, nil, fmt.Errorf("no PC/SC readers found")
		case 1:
			idx = 0
		default:
			return nil, nil, fmt.Errorf("multiple readers found, pass --reader <index> to select one")
		}
	}

	conn, err := ntag424.Connect(idx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := ntag424.SelectNDEFApp(conn.Card); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("select NDEF app: %w", err)
	}
	return conn, ntag424.NewTag(conn.Card), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ntag424ctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version)
		return nil
	},
}
