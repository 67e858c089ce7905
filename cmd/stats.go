package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show an event's statistics as seen by --as",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		payload, err := svc.GetStatistics(ctx, caller(), eventID)
		if err != nil {
			return errs.Wrap(err, "get statistics")
		}

		if _, err := fmt.Fprint(cmd.OutOrStdout(), renderStatistics(payload)); err != nil {
			return errs.Wrap(err, "write statistics output")
		}
		return nil
	}),
}

func renderStatistics(p engagement.StatisticsPayload) string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	privateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render(fmt.Sprintf("Event %d statistics", p.EventID)))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf("role=%s", p.Role)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Computed"))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("Participants: %d\n", p.Computed.ParticipantCount))
	builder.WriteString(fmt.Sprintf("Submissions: %d\n", p.Computed.SubmissionCount))
	builder.WriteString(fmt.Sprintf("Submission rate: %.2f%%\n", p.Computed.SubmissionRate))
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Stored"))
	builder.WriteString("\n")
	if len(p.Stored) == 0 {
		builder.WriteString(dimStyle.Render("- none visible"))
		builder.WriteString("\n")
		return builder.String()
	}
	for _, st := range p.Stored {
		line := fmt.Sprintf("%d %s", st.StatID, st.SummaryType)
		if st.PublicViewable {
			builder.WriteString("  " + line + "\n")
			continue
		}
		builder.WriteString("  " + privateStyle.Render(line+" (private)") + "\n")
	}
	return builder.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Uint64("event", 0, "Event id")
	_ = statsCmd.MarkFlagRequired("event")
}
