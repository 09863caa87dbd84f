package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <tab>",
	Short: "Dump a sheet tab to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab := args[0]

		snap, err := newSheetsClient().ReadTable(cmd.Context(), tab)
		if err != nil {
			return eris.Wrapf(err, "read %s", tab)
		}
		if snap.Empty() {
			fmt.Printf("tab %s is empty or does not exist\n", tab)
			return nil
		}

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader(snap.Header)
		for i := range snap.Rows {
			row := make([]string, len(snap.Header))
			for col := range snap.Header {
				row[col] = snap.Cell(i, col)
			}
			tw.Append(row)
		}
		tw.Render()

		fmt.Printf("%d rows\n", len(snap.Rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}
