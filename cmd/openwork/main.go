package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "openwork",
		Short:         "Work package tracking with historic queries",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newQueryCmd(), newEmailPreviewCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
