package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join an event as --as",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		participant, err := svc.JoinEvent(ctx, caller(), eventID)
		if err != nil {
			logging.Error(ctx, "join event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "join event")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "joined event %d as participant %d\n", eventID, participant.ParticipantID); err != nil {
			return errs.Wrap(err, "write join output")
		}
		return nil
	}),
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "Evaluate a user's profile against an event's criteria",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		userID, _ := cmd.Flags().GetUint64("user")
		result, err := svc.EvaluateEligibility(ctx, caller(), eventID, userID)
		if err != nil {
			return errs.Wrap(err, "evaluate eligibility")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "event %d user %d eligible=%t\n", result.EventID, result.UserID, result.Eligible); err != nil {
			return errs.Wrap(err, "write eligibility output")
		}
		for _, rule := range result.FailedRules {
			if _, err := fmt.Fprintf(out, "failed criterion %d %s: %s\n", rule.CriterionID, rule.RuleType, rule.Reason); err != nil {
				return errs.Wrap(err, "write failed rule")
			}
		}
		return nil
	}),
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit form responses to an event as --as",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		values, _ := cmd.Flags().GetStringToString("value")
		if values == nil {
			values = map[string]string{}
		}

		receipt, err := svc.ValidateAndSubmit(ctx, caller(), eventID, values)
		if err != nil {
			logging.Error(ctx, "submit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "submit")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "recorded submission %d for participant %d\n", receipt.SubmissionID, receipt.ParticipantID); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		for _, v := range receipt.Values {
			if _, err := fmt.Fprintf(out, "input %d=%s\n", v.InputID, v.Value); err != nil {
				return errs.Wrap(err, "write submitted value")
			}
		}
		return nil
	}),
}

var participantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "List an event's participants (owner only)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		items, err := svc.ListParticipants(ctx, caller(), eventID)
		if err != nil {
			return errs.Wrap(err, "list participants")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "participant\tuser\tjoined_at"); err != nil {
			return errs.Wrap(err, "write participants header")
		}
		for _, p := range items {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", p.ParticipantID, p.UserID, p.JoinedAt.Format(time.RFC3339)); err != nil {
				return errs.Wrap(err, "write participant row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush participants output")
		}
		return nil
	}),
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "List an event's submissions (owner only)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		items, err := svc.ListSubmissions(ctx, caller(), eventID)
		if err != nil {
			return errs.Wrap(err, "list submissions")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "submission\tparticipant\tsubmitted_at\tvalues"); err != nil {
			return errs.Wrap(err, "write submissions header")
		}
		for _, s := range items {
			pairs := make([]string, 0, len(s.Values))
			for _, v := range s.Values {
				pairs = append(pairs, fmt.Sprintf("%d=%s", v.InputID, v.Value))
			}
			sort.Strings(pairs)
			if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", s.SubmissionID, s.ParticipantID, s.SubmittedAt.Format(time.RFC3339), strings.Join(pairs, " ")); err != nil {
				return errs.Wrap(err, "write submission row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush submissions output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(participantsCmd)
	rootCmd.AddCommand(submissionsCmd)

	for _, c := range []*cobra.Command{joinCmd, eligibilityCmd, submitCmd, participantsCmd, submissionsCmd} {
		c.Flags().Uint64("event", 0, "Event id")
		_ = c.MarkFlagRequired("event")
	}
	eligibilityCmd.Flags().Uint64("user", 0, "User to evaluate (default: --as)")
	submitCmd.Flags().StringToString("value", nil, "Response input_id=value, repeatable")
}
