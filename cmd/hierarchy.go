package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/resolve"
)

var hierarchyContext string

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <organization>",
	Short: "Ask the classifier for an organization's direct parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("run"); err != nil {
			return err
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

		resolver := resolve.NewHierarchyResolver(oracle, initCache(st), 1)
		res, err := resolver.Resolve(ctx, []resolve.HierarchyRequest{{
			Name:    args[0],
			Context: model.StringPtr(hierarchyContext),
		}}, nil)
		if err != nil {
			return err
		}
		formatParent(os.Stdout, args[0], res)
		return nil
	},
}

func formatParent(w io.Writer, org string, res *resolve.HierarchyResult) {
	switch {
	case len(res.Failed) > 0:
		_, _ = fmt.Fprintf(w, "%s: classifier failed, no parent recorded\n", org)
	case res.Parents[org] == nil:
		_, _ = fmt.Fprintf(w, "%s: no parent\n", org)
	default:
		_, _ = fmt.Fprintf(w, "%s -> %s\n", org, *res.Parents[org])
	}
}

func init() {
	hierarchyCmd.Flags().StringVar(&hierarchyContext, "context", "", "background text about the organization")
	rootCmd.AddCommand(hierarchyCmd)
}
