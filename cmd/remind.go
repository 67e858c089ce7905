package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/ports"
	"eventgate/internal/usecase/engagement"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Record reminders for an event's participants (owner only)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		participants, _ := cmd.Flags().GetUintSlice("participant")
		batchID, _ := cmd.Flags().GetString("batch")

		ids := make([]uint64, 0, len(participants))
		for _, id := range participants {
			ids = append(ids, uint64(id))
		}

		records, err := svc.DispatchReminders(ctx, caller(), engagement.DispatchInput{
			EventID:        eventID,
			ParticipantIDs: ids,
			BatchID:        batchID,
		})
		if err != nil {
			logging.Error(ctx, "dispatch reminders failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "dispatch reminders")
		}
		return writeReminders(cmd, records)
	}),
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded reminders (owner only)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		batchID, _ := cmd.Flags().GetString("batch")
		records, err := svc.ListReminders(ctx, caller(), eventID, batchID)
		if err != nil {
			return errs.Wrap(err, "list reminders")
		}
		return writeReminders(cmd, records)
	}),
}

func writeReminders(cmd *cobra.Command, records []ports.Reminder) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "reminder\tparticipant\tbatch\tsent_at"); err != nil {
		return errs.Wrap(err, "write reminders header")
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.ReminderID, r.ParticipantID, r.BatchID, r.SentAt.Format(time.RFC3339)); err != nil {
			return errs.Wrap(err, "write reminder row")
		}
	}
	if err := w.Flush(); err != nil {
		return errs.Wrap(err, "flush reminders output")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.AddCommand(remindListCmd)

	remindCmd.Flags().Uint64("event", 0, "Event id")
	remindCmd.Flags().UintSlice("participant", nil, "Participant id(s); default is every current participant")
	remindCmd.Flags().String("batch", "", "Batch id; reuse it to retry a dispatch without duplicates")
	_ = remindCmd.MarkFlagRequired("event")

	remindListCmd.Flags().Uint64("event", 0, "Event id")
	remindListCmd.Flags().String("batch", "", "Only this batch")
	_ = remindListCmd.MarkFlagRequired("event")
}
