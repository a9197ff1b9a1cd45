package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"organigram/internal/codec"
	"organigram/internal/loader"
	"organigram/internal/repository/sqlite"
)

const defaultDatabase = "./organigram.db"

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		dbPath string
		format string
	)

	cmd := &cobra.Command{
		Use:   "import <snapshot>",
		Short: "Load a directory snapshot file into the SQLite directory store",
		Long: "Import replaces the content of the SQLite store with the agents and " +
			"containers of a YAML or JSON snapshot, in one transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = defaultDatabase
				if a.cfg.Directory.Kind == "sqlite" {
					dbPath = a.cfg.Directory.Path
				}
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(args[0]), ".")
			}

			imp, err := codec.ImporterFor(format)
			if err != nil {
				return withCode(exitConfig, err)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return withCode(exitSource, err)
			}
			defer f.Close()

			snap, err := imp.Parse(f)
			if err != nil {
				return withCode(exitSource, fmt.Errorf("parse %s: %w", args[0], err))
			}

			repo, err := sqlite.New(dbPath)
			if err != nil {
				return withCode(exitOutput, err)
			}
			defer repo.Close()

			if err := repo.ImportSnapshot(cmd.Context(), snap); err != nil {
				return withCode(exitOutput, err)
			}
			agents, containers, err := repo.Counts(cmd.Context())
			if err != nil {
				return withCode(exitOutput, err)
			}
			a.log.WithField("source", repo.Name()).Infof("imported %d agents and %d containers", agents, containers)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d agents, %d containers\n", dbPath, agents, containers)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default: directory.path when directory.kind is sqlite, else "+defaultDatabase+")")
	cmd.Flags().StringVar(&format, "format", "", "Snapshot format (yaml|json); default from the file extension")
	return cmd
}

func newDumpCmd(root *rootOptions) *cobra.Command {
	var (
		dbPath string
		output string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the SQLite directory store back out as a YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = defaultDatabase
				if a.cfg.Directory.Kind == "sqlite" {
					dbPath = a.cfg.Directory.Path
				}
			}

			repo, err := sqlite.New(dbPath)
			if err != nil {
				return withCode(exitSource, err)
			}
			defer repo.Close()

			snap, err := repo.Snapshot(cmd.Context())
			if err != nil {
				return withCode(exitSource, err)
			}
			data, err := loader.ExportSnapshot(snap)
			if err != nil {
				return withCode(exitOutput, err)
			}
			if err := writeExport(cmd.OutOrStdout(), output, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}); err != nil {
				return withCode(exitOutput, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; - for stdout")
	return cmd
}
