package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"eventgate/internal/bootstrap"
	"eventgate/internal/bootstrap/logging"
	"eventgate/internal/errs"
	"eventgate/internal/usecase/engagement"
)

const dateLayout = "2006-01-02"

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user profiles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user profile",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		first, _ := cmd.Flags().GetString("first-name")
		last, _ := cmd.Flags().GetString("last-name")
		email, _ := cmd.Flags().GetString("email")
		gender, _ := cmd.Flags().GetString("gender")
		dobRaw, _ := cmd.Flags().GetString("dob")
		attrs, _ := cmd.Flags().GetStringToString("attr")
		creator, _ := cmd.Flags().GetBool("creator")

		var dob *time.Time
		if strings.TrimSpace(dobRaw) != "" {
			parsed, err := time.Parse(dateLayout, strings.TrimSpace(dobRaw))
			if err != nil {
				return errs.Wrapf(err, "parse --dob %q", dobRaw)
			}
			dob = &parsed
		}

		user, err := svc.CreateUser(ctx, engagement.CreateUserInput{
			FirstName:   first,
			LastName:    last,
			Email:       email,
			Gender:      gender,
			DateOfBirth: dob,
			Attributes:  attrs,
			IsCreator:   creator,
		})
		if err != nil {
			logging.Error(ctx, "create user failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create user")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created user: %d email=%s creator=%t\n", user.UserID, user.Email, user.IsCreator); err != nil {
			return errs.Wrap(err, "write create output")
		}
		return nil
	}),
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user profile",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *engagement.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID, _ := cmd.Flags().GetUint64("id")
		user, err := svc.GetUser(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "get user")
		}

		dob := "-"
		if user.DateOfBirth != nil {
			dob = user.DateOfBirth.Format(dateLayout)
		}
		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "user %d: %s %s <%s>\ngender: %s\ndob: %s\ncreator: %t\n",
			user.UserID, user.FirstName, user.LastName, user.Email, user.Gender, dob, user.IsCreator); err != nil {
			return errs.Wrap(err, "write user output")
		}

		keys := make([]string, 0, len(user.Attributes))
		for k := range user.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(out, "attr %s=%s\n", k, user.Attributes[k]); err != nil {
				return errs.Wrap(err, "write user attribute")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)

	userCreateCmd.Flags().String("first-name", "", "First name")
	userCreateCmd.Flags().String("last-name", "", "Last name")
	userCreateCmd.Flags().String("email", "", "Email address, unique regardless of case")
	userCreateCmd.Flags().String("gender", "", "Gender")
	userCreateCmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	userCreateCmd.Flags().StringToString("attr", nil, "Profile attribute key=value, repeatable")
	userCreateCmd.Flags().Bool("creator", false, "Allow this user to create events")
	_ = userCreateCmd.MarkFlagRequired("first-name")
	_ = userCreateCmd.MarkFlagRequired("last-name")
	_ = userCreateCmd.MarkFlagRequired("email")

	userShowCmd.Flags().Uint64("id", 0, "User id")
	_ = userShowCmd.MarkFlagRequired("id")
}
