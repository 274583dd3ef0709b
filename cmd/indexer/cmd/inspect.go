package cmd

import (
	"fmt"
	"os"

	"ironready/coach-api/internal/retrieval"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot]",
	Short: "Validate a snapshot and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		snap, err := retrieval.UnmarshalSnapshot(data)
		if err != nil {
			return err
		}
		cmd.Printf("Version:    %s\n", snap.Version)
		cmd.Printf("Embedder:   %s\n", snap.Embedder)
		cmd.Printf("Dimensions: %d\n", snap.Dimensions)
		cmd.Printf("Created:    %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		cmd.Printf("Entries:    %d\n", len(snap.Entries))

		if list, _ := cmd.Flags().GetBool("list"); list {
			for i, e := range snap.Entries {
				cmd.Printf("%4d  %s\n", i, e.Document.Name)
			}
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolP("list", "l", false, "print every exercise name")
	rootCmd.AddCommand(inspectCmd)
}
