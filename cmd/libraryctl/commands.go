package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"library-backend/internal/clock"
	"library-backend/internal/config"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
	"library-backend/internal/repository/postgres"
	"library-backend/internal/security"
	"library-backend/internal/service"
	"library-backend/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "libraryctl",
		Short:        "Administrative tasks for the library backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger.Initialize(cfg.Log.Level, cfg.Log.Format)
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	root.AddCommand(
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
		newMarkOverdueCmd(opts),
	)
	return root
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Database.Driver == "memory" {
				return errors.New("migrate needs a postgres database, the memory driver has no schema")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}
}

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, fmt.Sprintf("Password for %s: ", username))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			return withStore(cmd.Context(), opts.cfg, func(store repository.Store) error {
				clk := clock.System()
				tokens := security.NewTokenManager(opts.cfg.JWT.Secret, opts.cfg.AccessTokenTTL(), opts.cfg.RefreshTokenTTL(), clk)
				auth := service.NewAuthService(store, tokens, clk, opts.cfg.Loans.DefaultMaxBooks)

				user, err := auth.CreateStaffUser(cmd.Context(), service.RegisterInput{
					Username: username,
					Email:    email,
					Password: password,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created staff user %q with ID %d\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username of the new staff user")
	cmd.Flags().StringVar(&email, "email", "", "E-mail address of the new staff user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newMarkOverdueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-overdue",
		Short: "Persist the overdue status of every active loan past its due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts.cfg, func(store repository.Store) error {
				periods := domain.LoanPeriods{Default: opts.cfg.DefaultLoanPeriod(), Max: opts.cfg.MaxLoanPeriod()}
				loans := service.NewLoanService(store, clock.System(), periods)

				count, err := loans.MarkOverdue(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d loan(s) overdue\n", count)
				return nil
			})
		},
	}
}

func withStore(ctx context.Context, cfg *config.Config, fn func(store repository.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// readPassword masks input on a terminal and reads one line otherwise
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
