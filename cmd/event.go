package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/infrastructure/eventfile"
	"eventgate/internal/usecase/engagement"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events and their configuration",
}

var eventCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event owned by --as",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		place, _ := cmd.Flags().GetString("place")
		startRaw, _ := cmd.Flags().GetString("start")
		endRaw, _ := cmd.Flags().GetString("end")
		deadline, _ := cmd.Flags().GetBool("deadline")
		multiple, _ := cmd.Flags().GetBool("allow-multiple")

		start, err := parseTimeFlag("start", startRaw)
		if err != nil {
			return err
		}
		end, err := parseTimeFlag("end", endRaw)
		if err != nil {
			return err
		}
		unique := !multiple

		ev, err := svc.CreateEvent(ctx, caller(), engagement.CreateEventInput{
			Name:              name,
			Place:             place,
			StartDate:         start,
			EndDate:           end,
			DeadlineEnforced:  deadline,
			UniqueSubmissions: &unique,
		})
		if err != nil {
			logging.Error(ctx, "create event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create event")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created event: %d name=%q unique_submissions=%t\n", ev.EventID, ev.Name, ev.UniqueSubmissions); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		creatorID, _ := cmd.Flags().GetUint64("creator")
		items, err := svc.ListEvents(ctx, creatorID)
		if err != nil {
			return errs.Wrap(err, "list events")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\tname\tcreator\tstatus\tstart\tend\tunique"); err != nil {
			return errs.Wrap(err, "write event list header")
		}
		for _, ev := range items {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%t\n",
				ev.EventID, ev.Name, ev.CreatorID, ev.Status,
				ev.StartDate.Format(time.RFC3339), ev.EndDate.Format(time.RFC3339), ev.UniqueSubmissions); err != nil {
				return errs.Wrap(err, "write event list row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush event list output")
		}
		return nil
	}),
}

var eventShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an event with its criteria and input fields",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		ev, err := svc.GetEvent(ctx, eventID)
		if err != nil {
			return errs.Wrap(err, "get event")
		}
		criteria, err := svc.ListCriteria(ctx, eventID)
		if err != nil {
			return errs.Wrap(err, "list criteria")
		}
		inputs, err := svc.ListInputFields(ctx, eventID)
		if err != nil {
			return errs.Wrap(err, "list input fields")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		lines := []string{
			fmt.Sprintf("event\t%d", ev.EventID),
			fmt.Sprintf("name\t%s", ev.Name),
			fmt.Sprintf("place\t%s", ev.Place),
			fmt.Sprintf("creator\t%d", ev.CreatorID),
			fmt.Sprintf("status\t%s", ev.Status),
			fmt.Sprintf("window\t%s .. %s", ev.StartDate.Format(time.RFC3339), ev.EndDate.Format(time.RFC3339)),
			fmt.Sprintf("deadline_enforced\t%t", ev.DeadlineEnforced),
			fmt.Sprintf("unique_submissions\t%t", ev.UniqueSubmissions),
		}
		for _, c := range criteria {
			lines = append(lines, fmt.Sprintf("criterion %d\t%s=%s", c.CriterionID, c.RuleType, c.RuleValue))
		}
		for _, f := range inputs {
			lines = append(lines, fmt.Sprintf("input %d\t%s (%s) %s", f.InputID, f.Label, f.FieldType, f.ValidationRules))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return errs.Wrap(err, "write event output")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush event output")
		}
		return nil
	}),
}

var eventStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Change an event's status (open|closed)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		status, _ := cmd.Flags().GetString("status")
		updated, err := svc.UpdateEventStatus(ctx, caller(), eventID, status)
		if err != nil {
			logging.Error(ctx, "update event status failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update event status")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "event %d status=%s\n", eventID, updated); err != nil {
			return errs.Wrap(err, "write status output")
		}
		return nil
	}),
}

var eventDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an event and everything recorded for it",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		if err := svc.DeleteEvent(ctx, caller(), eventID); err != nil {
			logging.Error(ctx, "delete event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete event")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted event: %d\n", eventID); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

var eventImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create an event from a TOML or YAML definition file",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		path, _ := cmd.Flags().GetString("file")
		format, err := eventfile.FormatFromPath(path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return errs.Wrapf(err, "open event file %q", path)
		}
		defer f.Close()

		def, err := eventfile.Decode(f, format)
		if err != nil {
			return errs.Wrapf(err, "read event file %q", path)
		}
		ev, err := svc.ImportEvent(ctx, caller(), def)
		if err != nil {
			logging.Error(ctx, "import event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "import event")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "imported event: %d criteria=%d inputs=%d statistics=%d\n",
			ev.EventID, len(def.Criteria), len(def.Inputs), len(def.Statistics)); err != nil {
			return errs.Wrap(err, "write import output")
		}
		return nil
	}),
}

var eventExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an event definition as TOML or YAML",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		path, _ := cmd.Flags().GetString("file")
		formatRaw, _ := cmd.Flags().GetString("format")

		format := eventfile.Format(strings.ToLower(strings.TrimSpace(formatRaw)))
		if strings.TrimSpace(path) != "" {
			detected, err := eventfile.FormatFromPath(path)
			if err != nil {
				return err
			}
			format = detected
		}

		def, err := svc.ExportEvent(ctx, caller(), eventID)
		if err != nil {
			return errs.Wrap(err, "export event")
		}

		var buf bytes.Buffer
		if err := eventfile.Encode(&buf, format, def); err != nil {
			return err
		}
		if strings.TrimSpace(path) == "" {
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return errs.Wrap(err, "write export output")
			}
			return nil
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return errs.Wrapf(err, "write event file %q", path)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "exported event %d to %s\n", eventID, path); err != nil {
			return errs.Wrap(err, "write export output")
		}
		return nil
	}),
}

// parseTimeFlag accepts RFC3339 timestamps or plain dates, which are read as UTC midnight.
func parseTimeFlag(name string, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be RFC3339 or YYYY-MM-DD, got %q", name, raw)
	}
	return t, nil
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventCreateCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventShowCmd)
	eventCmd.AddCommand(eventStatusCmd)
	eventCmd.AddCommand(eventDeleteCmd)
	eventCmd.AddCommand(eventImportCmd)
	eventCmd.AddCommand(eventExportCmd)

	eventCreateCmd.Flags().String("name", "", "Event name")
	eventCreateCmd.Flags().String("place", "", "Event place")
	eventCreateCmd.Flags().String("start", "", "Start (RFC3339 or YYYY-MM-DD)")
	eventCreateCmd.Flags().String("end", "", "End (RFC3339 or YYYY-MM-DD)")
	eventCreateCmd.Flags().Bool("deadline", false, "Reject submissions after the end date when deadlines are enforced")
	eventCreateCmd.Flags().Bool("allow-multiple", false, "Allow more than one submission per participant")
	_ = eventCreateCmd.MarkFlagRequired("name")

	eventListCmd.Flags().Uint64("creator", 0, "Only events created by this user")

	for _, c := range []*cobra.Command{eventShowCmd, eventStatusCmd, eventDeleteCmd, eventExportCmd} {
		c.Flags().Uint64("event", 0, "Event id")
		_ = c.MarkFlagRequired("event")
	}
	eventStatusCmd.Flags().String("status", "", "New status")
	_ = eventStatusCmd.MarkFlagRequired("status")

	eventImportCmd.Flags().String("file", "", "Definition file (.toml, .yaml, .yml)")
	_ = eventImportCmd.MarkFlagRequired("file")

	eventExportCmd.Flags().String("file", "", "Output file; format follows the extension")
	eventExportCmd.Flags().String("format", string(eventfile.FormatYAML), "Output format when writing to stdout (toml|yaml)")
}
