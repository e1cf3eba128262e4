package cmd

import (
	"github.com/KaramelBytes/edaloom/internal/eda"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the available exploration operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Name", "Title", "Description"})
		for _, op := range eda.Operations() {
			t.AppendRow(table.Row{op.String(), op.Title(), op.Description()})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
}
