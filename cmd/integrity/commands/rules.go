package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"counsel/internal/integrity/models"
)

func newRulesCommand(load loadFunc) *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered integrity rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var t models.EntityType
			if entityType != "" {
				parsed, err := models.ParseEntityType(entityType)
				if err != nil {
					return err
				}
				t = parsed
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := buildApp(cliContext(cmd.Context()), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tPRIORITY\tDESCRIPTION")
			for _, r := range a.svc.Rules(t) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Name(), r.EntityType(), r.Priority(), r.Description())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "only list rules for this entity type")
	return cmd
}
