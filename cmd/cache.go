package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roster-graph/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached classifier and fact verdicts",
}

// -- cache stats --

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cached verdicts per namespace",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.VerdictStats(ctx)
		if err != nil {
			return eris.Wrap(err, "cache stats")
		}
		formatCacheStats(os.Stdout, stats)
		return nil
	},
}

// -- cache purge --

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached verdicts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		namespace, _ := cmd.Flags().GetString("namespace")
		if err := validNamespace(namespace); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.PurgeVerdicts(ctx, namespace)
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}
		scope := namespace
		if scope == "" {
			scope = "all namespaces"
		}
		_, _ = fmt.Fprintf(os.Stdout, "Purged %d verdicts from %s.\n", n, scope)
		return nil
	},
}

func validNamespace(ns string) error {
	switch ns {
	case "", store.NamespaceDedup, store.NamespaceHierarchy, store.NamespaceFacts, store.NamespaceProfile:
		return nil
	default:
		return eris.Errorf("unknown namespace %q (want %s, %s, %s or %s)",
			ns, store.NamespaceDedup, store.NamespaceHierarchy, store.NamespaceFacts, store.NamespaceProfile)
	}
}

func formatCacheStats(out io.Writer, stats []store.NamespaceStats) {
	if len(stats) == 0 {
		_, _ = fmt.Fprintln(out, "Cache is empty.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAMESPACE\tENTRIES\tLAST_WRITE")
	_, _ = fmt.Fprintln(w, "---------\t-------\t----------")
	for _, s := range stats {
		last := ""
		if !s.LastWrite.IsZero() {
			last = s.LastWrite.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", s.Namespace, s.Entries, last)
	}
	_ = w.Flush()
}

func init() {
	cachePurgeCmd.Flags().String("namespace", "", "only purge this namespace (dedup, hierarchy, facts, profile)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
