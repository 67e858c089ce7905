package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Manage eligibility criteria",
}

var criteriaAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Attach an eligibility rule to an event",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		ruleType, _ := cmd.Flags().GetString("type")
		ruleValue, _ := cmd.Flags().GetString("value")

		created, err := svc.AddCriterion(ctx, caller(), eventID, ruleType, ruleValue)
		if err != nil {
			logging.Error(ctx, "add criterion failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "add criterion")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "added criterion: %d %s=%s\n", created.CriterionID, created.RuleType, created.RuleValue); err != nil {
			return errs.Wrap(err, "write criterion output")
		}
		return nil
	}),
}

var inputCmd = &cobra.Command{
	Use:   "input",
	Short: "Manage event input fields",
}

var inputAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a form field to an event",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		label, _ := cmd.Flags().GetString("label")
		fieldType, _ := cmd.Flags().GetString("type")
		rules, _ := cmd.Flags().GetString("rules")

		var defaultValue *string
		if cmd.Flags().Changed("default") {
			v, _ := cmd.Flags().GetString("default")
			defaultValue = &v
		}

		created, err := svc.AddInputField(ctx, caller(), eventID, engagement.AddInputFieldInput{
			Label:           label,
			FieldType:       fieldType,
			DefaultValue:    defaultValue,
			ValidationRules: rules,
		})
		if err != nil {
			logging.Error(ctx, "add input field failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "add input field")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "added input: %d label=%q type=%s\n", created.InputID, created.Label, created.FieldType); err != nil {
			return errs.Wrap(err, "write input output")
		}
		return nil
	}),
}

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Manage stored statistics",
}

var statAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a summary record on an event",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		summaryType, _ := cmd.Flags().GetString("type")
		public, _ := cmd.Flags().GetBool("public")

		created, err := svc.AddStatistic(ctx, caller(), eventID, summaryType, public)
		if err != nil {
			logging.Error(ctx, "add statistic failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "add statistic")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "added statistic: %d type=%s public=%t\n", created.StatID, created.SummaryType, created.PublicViewable); err != nil {
			return errs.Wrap(err, "write statistic output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
	rootCmd.AddCommand(inputCmd)
	rootCmd.AddCommand(statCmd)
	criteriaCmd.AddCommand(criteriaAddCmd)
	inputCmd.AddCommand(inputAddCmd)
	statCmd.AddCommand(statAddCmd)

	for _, c := range []*cobra.Command{criteriaAddCmd, inputAddCmd, statAddCmd} {
		c.Flags().Uint64("event", 0, "Event id")
		_ = c.MarkFlagRequired("event")
	}

	criteriaAddCmd.Flags().String("type", "", "Rule type (min_age|max_age|gender|gender_in|email_domain|attribute_equals|attribute_in)")
	criteriaAddCmd.Flags().String("value", "", "Rule value")
	_ = criteriaAddCmd.MarkFlagRequired("type")

	inputAddCmd.Flags().String("label", "", "Field label")
	inputAddCmd.Flags().String("type", "text", "Field type (text|number|date|boolean|select)")
	inputAddCmd.Flags().String("default", "", "Default value used when the response is blank")
	inputAddCmd.Flags().String("rules", "", "Validation rules as a JSON object")
	_ = inputAddCmd.MarkFlagRequired("label")

	statAddCmd.Flags().String("type", "", "Summary type")
	statAddCmd.Flags().Bool("public", false, "Visible to non-owners")
	_ = statAddCmd.MarkFlagRequired("type")
}
