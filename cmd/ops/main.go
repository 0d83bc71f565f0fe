package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	authUsecase "hndld-backend/internal/auth/usecase"
	"hndld-backend/internal/bootstrap"
	momentsUsecase "hndld-backend/internal/moments/usecase"
	"hndld-backend/internal/task/domain"
	taskUsecase "hndld-backend/internal/task/usecase"
	"hndld-backend/pkg/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "hndld-ops",
		Short:         "Operational commands for the hndld backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCmd(cfg),
		newMomentsCmd(cfg),
		newNextCmd(),
		newTokenCmd(cfg),
	)
	return root
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening a gorm backed driver migrates the schema
			repos, err := bootstrap.OpenRepositories(cfg)
			if err != nil {
				return err
			}
			defer repos.Close()
			if repos.DB() == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "storage driver %q has no schema\n", cfg.StorageDriver)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newMomentsCmd(cfg *config.Config) *cobra.Command {
	moments := &cobra.Command{
		Use:   "moments",
		Short: "Important-date reminder automation",
	}

	var householdID string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the moments sweep once",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := bootstrap.OpenRepositories(cfg)
			if err != nil {
				return err
			}
			defer repos.Close()

			uc := momentsUsecase.NewMomentsUsecase(repos.Households, repos.Tasks, momentsUsecase.Options{
				WindowDays: cfg.MomentsWindowDays,
				LeadDays:   cfg.MomentsLeadDays,
				Timeout:    cfg.PersistenceTimeout,
			})

			out := cmd.OutOrStdout()
			if householdID != "" {
				created, err := uc.GenerateMomentsTasks(cmd.Context(), householdID)
				fmt.Fprintf(out, "household %s: %d tasks created\n", householdID, len(created))
				return err
			}

			summary := uc.RunMomentsAutomation(cmd.Context())
			fmt.Fprintf(out, "%d households, %d tasks created, %d failed\n",
				summary.Households, len(summary.Created), len(summary.Failed))
			for id, err := range summary.Failed {
				fmt.Fprintf(out, "  %s: %v\n", id, err)
			}
			return nil
		},
	}
	run.Flags().StringVar(&householdID, "household", "", "only sweep this household")
	moments.AddCommand(run)
	return moments
}

func newNextCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "next <recurrence> [custom-days]",
		Short: "Print the next occurrence for a recurrence rule",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var customDays *int
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("custom days: %w", err)
				}
				customDays = &n
			}
			var anchor *time.Time
			if from != "" {
				t, err := time.Parse("2006-01-02", from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				anchor = &t
			}

			next := taskUsecase.CalculateNextOccurrence(domain.Recurrence(args[0]), customDays, anchor)
			if next == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no next occurrence")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), next.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "anchor date (YYYY-MM-DD), defaults to now")
	return cmd
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var (
		userID      string
		householdID string
		role        string
		ttl         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := authUsecase.NewAuthUsecase(cfg.JWTSecret, cfg.JWTIssuer).
				IssueToken(userID, householdID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&householdID, "household", "", "household id")
	cmd.Flags().StringVar(&role, "role", "ASSISTANT", "ASSISTANT, CLIENT or STAFF")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("household")
	return cmd
}
