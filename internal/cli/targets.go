package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/extract/internal/target"
)

// TargetInfo describes one registered target.
type TargetInfo struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Extension string   `json:"extension"`
	Summary   string   `json:"summary"`
}

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "targets",
		Short:         "List registered emission targets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(rootOpts, cmd)
		},
	}
}

func runTargets(opts *RootOptions, cmd *cobra.Command) error {
	all := target.All()
	infos := make([]TargetInfo, len(all))
	for i, t := range all {
		infos[i] = TargetInfo{
			Name:      t.Name,
			Aliases:   t.Aliases,
			Extension: t.Extension,
			Summary:   t.Summary,
		}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, t := range infos {
		name := t.Name
		if len(t.Aliases) > 0 {
			name += " (" + strings.Join(t.Aliases, ", ") + ")"
		}
		rows = append(rows, []string{name, t.Extension, t.Summary})
	}
	renderTable(cmd.OutOrStdout(), []string{"Target", "Ext", "Summary"}, rows)
	return nil
}
