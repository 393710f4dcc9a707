package main

import (
	"fmt"

	"github.com/deppfellow/openwork/internal/lib/email"
	"github.com/spf13/cobra"
)

func newEmailPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "email-preview <template>",
		Short:     "Render an email template with sample data to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(email.TemplateWorkPackageUpdated)},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := email.Template(args[0])
			data, ok := email.PreviewData[name]
			if !ok {
				return fmt.Errorf("no preview data for template %q", name)
			}

			html, err := email.Render(name, data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}
}
