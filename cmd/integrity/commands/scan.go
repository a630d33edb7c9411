package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"counsel/internal/integrity/models"
	"counsel/pkg/requestcontext"
)

// ErrCriticalIssues is returned by scan --fail-on-critical.
var ErrCriticalIssues = errors.New("critical integrity issues found")

const cliActor = "cli"

func newScanCommand(load loadFunc) *cobra.Command {
	var (
		guildID        string
		output         string
		failOnCritical bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan one guild and print every integrity issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cliContext(cmd.Context())
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.svc.ScanForIntegrityIssues(ctx, guildID)
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			if failOnCritical && report.HasCritical() {
				return ErrCriticalIssues
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "guild id to scan")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit non-zero when a critical issue is found")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}

func cliContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return requestcontext.WithActorID(ctx, cliActor)
}

func checkOutput(output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, output string, report *models.Report) error {
	if output == "json" {
		return printJSON(w, report)
	}
	counts := report.CountBySeverity()
	fmt.Fprintf(w, "guild %s: %d issues (%d critical, %d warning, %d info) in %s\n",
		report.GuildID, len(report.Issues),
		counts[models.SeverityCritical], counts[models.SeverityWarning], counts[models.SeverityInfo],
		report.Duration)
	if len(report.Issues) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tTYPE\tID\tFIELD\tAUTO\tMESSAGE")
	for _, issue := range report.Issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			issue.Severity, issue.EntityType, issue.EntityID, issue.Field, issue.Repairable(), issue.Message)
	}
	return tw.Flush()
}
