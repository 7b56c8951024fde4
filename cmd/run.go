package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roster-graph/internal/pipeline"
	"github.com/sells-group/roster-graph/internal/resolve"
	"github.com/sells-group/roster-graph/internal/roster"
	"github.com/sells-group/roster-graph/internal/taxonomy"
)

var (
	runOutDir     string
	runFormat     string
	runStrict     bool
	runNoFacts    bool
	runNoProfiles bool
)

// errViolations fails a strict run whose graph did not validate.
var errViolations = eris.New("graph has integrity violations")

var runCmd = &cobra.Command{
	Use:   "run <roster>",
	Short: "Resolve a roster file into an entity graph",
	Long:  "Reads a CSV or XLSX roster, deduplicates and links organizations, allocates identifiers, validates the graph and exports the four relational tables.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("format") {
			cfg.Export.Format = runFormat
		}
		if cmd.Flags().Changed("out") {
			cfg.Export.Dir = runOutDir
		}
		if runNoFacts {
			cfg.Wikipedia.Enabled = false
		}
		if runNoProfiles {
			cfg.Pipeline.Profiles = false
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		people, err := roster.ReadFile(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "read roster")
		}

		tax, err := taxonomy.Load(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		vc := initCache(st)
		oracle, err := initOracle(cfg)
		if err != nil {
			return err
		}

		p := pipeline.New(st, oracle, vc, tax, pipeline.Options{
			Concurrency: cfg.Pipeline.Concurrency,
			Context: resolve.ContextOptions{
				MaxExcerpts: cfg.Pipeline.ContextExcerpts,
				MaxChars:    cfg.Pipeline.ContextChars,
			},
			Enricher: initEnricher(cfg, vc),
			Profiler: initProfiler(cfg, oracle, vc),
		})

		result, err := p.Run(ctx, people)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		paths, err := roster.Export(result.Graph, cfg.Export.Dir, cfg.Export.Format)
		if err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("run_id", result.RunID),
			zap.Strings("files", paths),
		)

		if err := writeSummary(os.Stdout, result); err != nil {
			return err
		}
		return checkStrict(result, runStrict)
	},
}

// writeSummary prints the run summary and validation report as JSON.
func writeSummary(w io.Writer, result *pipeline.Result) error {
	out := struct {
		RunID      string `json:"run_id"`
		Summary    any    `json:"summary"`
		Report     any    `json:"report"`
		Unresolved any    `json:"unresolved,omitempty"`
	}{
		RunID:   result.RunID,
		Summary: result.Summary,
		Report:  result.Report,
	}
	if len(result.Unresolved) > 0 {
		out.Unresolved = result.Unresolved
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func checkStrict(result *pipeline.Result, strict bool) error {
	if !strict || result.Report == nil || result.Report.Passed() {
		return nil
	}
	return eris.Wrapf(errViolations, "%d violations", len(result.Report.Violations))
}

func init() {
	runCmd.Flags().StringVar(&runOutDir, "out", "", "export directory (default from export.dir)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "export format: csv or xlsx (default from export.format)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "exit non-zero when the graph has integrity violations")
	runCmd.Flags().BoolVar(&runNoFacts, "no-facts", false, "skip the Wikipedia fact lookup")
	runCmd.Flags().BoolVar(&runNoProfiles, "no-profiles", false, "skip extracting person profiles from the facts")
	rootCmd.AddCommand(runCmd)
}
