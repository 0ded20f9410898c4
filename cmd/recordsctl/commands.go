package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/observability"
	"github.com/utilityops/records-service/internal/persistence"
	"github.com/utilityops/records-service/internal/repository"
	"github.com/utilityops/records-service/internal/service"
)

// env is what every command needs: configuration, a logger and the database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, "recordsctl", logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *env) Close() {
	e.pg.Close()
	_ = e.logger.Sync()
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := persistence.RunMigrations(ctx, e.pg.PoolHandle(), e.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var input service.CreateUserInput
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an operator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			input.Role = domain.Role(role)
			users := service.NewUserService(*e.cfg, repository.NewUserRepository(e.pg.PoolHandle()))
			user, err := users.Create(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s, %s)\n", user.Username, user.Role, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input.Username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "initial password")
	cmd.Flags().StringVar(&input.FullName, "fullname", "", "full name")
	cmd.Flags().StringVar(&input.Position, "position", "", "job title, e.g. \"Area Engineer\"")
	cmd.Flags().StringVar(&input.EmployeeID, "employee-id", "", "employee id")
	cmd.Flags().StringVarP(&role, "role", "r", string(domain.RoleDataEntry), "data_entry or data_viewing")
	for _, name := range []string{"username", "password", "fullname", "position", "employee-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
