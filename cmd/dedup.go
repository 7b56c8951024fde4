package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roster-graph/internal/resolve"
)

var dedupFile string

var dedupCmd = &cobra.Command{
	Use:   "dedup [name...]",
	Short: "Group organization names that denote the same entity",
	Long:  "Runs the deduplication stage alone on names given as arguments or read one per line from --file, and prints the raw to canonical mapping.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		names := append([]string(nil), args...)
		if dedupFile != "" {
			fromFile, err := readNames(dedupFile)
			if err != nil {
				return err
			}
			names = append(names, fromFile...)
		}
		if len(names) == 0 {
			return eris.New("dedup: no names given")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		oracle, err := initOracle(cfg)
		if err != nil {
			return err
		}

		res, err := resolve.NewDeduplicator(oracle, initCache(st)).Deduplicate(ctx, names)
		if err != nil {
			return err
		}
		formatMapping(os.Stdout, res)
		return nil
	},
}

// readNames reads one name per line, skipping blank lines.
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open names file %s", path)
	}
	defer f.Close() //nolint:errcheck
	return scanNames(f)
}

func scanNames(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names, eris.Wrap(sc.Err(), "scan names")
}

// formatMapping writes the canonical groups, variants indented under each.
func formatMapping(out io.Writer, res *resolve.DedupResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CANONICAL\tVARIANTS")
	_, _ = fmt.Fprintln(w, "---------\t--------")
	for _, org := range res.Organizations() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", org.Name, strings.Join(org.Variants, "; "))
	}
	_ = w.Flush()

	source := "classifier"
	switch {
	case res.Degraded:
		source = "identity fallback"
	case res.FromCache:
		source = "cache"
	}
	_, _ = fmt.Fprintf(out, "\n%d names, %d canonical, %d merged (%s)\n",
		len(res.Mapping), len(res.Canonical), res.Merges, source)
}

func init() {
	dedupCmd.Flags().StringVar(&dedupFile, "file", "", "file with one organization name per line")
	rootCmd.AddCommand(dedupCmd)
}
