package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"organigram/internal/domain"
	"organigram/internal/metrics"
	"organigram/internal/service"
)

type buildOptions struct {
	format   string
	output   string
	textfile string
	kind     string
	source   string
	base     string
	quiet    bool
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the pipeline once and export the chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Export format (json|yaml|xlsx); overrides export.format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file; - for stdout")
	cmd.Flags().StringVar(&opts.textfile, "metrics-textfile", "", "Write run metrics to this Prometheus textfile")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Directory source kind (yaml|sqlite)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Directory source location")
	cmd.Flags().StringVar(&opts.base, "base", "", "Restrict the agent and container feeds to this base path")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the run summary")
	return cmd
}

func runBuild(cmd *cobra.Command, root *rootOptions, opts *buildOptions) error {
	a, err := setup(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg := a.cfg
	if opts.format != "" {
		cfg.Export.Format = opts.format
	}
	if opts.output != "" {
		cfg.Export.Output = opts.output
	}
	if opts.textfile != "" {
		cfg.Metrics.Textfile = opts.textfile
	}
	if opts.kind != "" {
		cfg.Directory.Kind = opts.kind
	}
	if opts.source != "" {
		cfg.Directory.Path = opts.source
	}
	if opts.base != "" {
		cfg.Directory.Base = opts.base
	}
	if err := cfg.Validate(); err != nil {
		return withCode(exitConfig, err)
	}

	reg := metrics.NewRegistry()
	svc := service.NewChartService(cfg, a.dirs, nil,
		service.WithLogger(a.log),
		service.WithMetrics(reg),
	)
	res, err := svc.Build(cmd.Context())
	if cfg.Metrics.Textfile != "" {
		if werr := reg.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			a.log.WithError(werr).Warn("failed to write metrics textfile")
		}
	}
	if err != nil {
		return withCode(exitSource, err)
	}

	if err := writeExport(cmd.OutOrStdout(), cfg.Export.Output, func(w io.Writer) error {
		return svc.Export(cfg.Export.Format, w)
	}); err != nil {
		return withCode(exitOutput, err)
	}

	if !opts.quiet {
		printSummary(cmd.ErrOrStderr(), res)
	}
	return nil
}

// writeExport sends the export to stdout or to a new file at path
func writeExport(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, res *service.Result) {
	s := res.Stats
	fmt.Fprintf(w, "run %s: %d agents, %d placeholders, %d containers in %s\n",
		res.RunID, s.Agents, s.Placeholders, s.Containers, s.Duration.Round(time.Microsecond))
	fmt.Fprintf(w, "lookups: %d found, %d missed, %d failed\n", s.LookupsFound, s.LookupsMiss, s.LookupErrors)

	counts := domain.CountWarnings(res.Warnings())
	if len(counts) == 0 {
		fmt.Fprintln(w, "no warnings")
		return
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "%d warnings:\n", len(res.Warnings()))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-26s %d\n", k, counts[domain.WarningKind(k)])
	}
}
