package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/docstore"
	"github.com/noah-isme/school-portal-api/pkg/logger"
)

type cli struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "schoolctl",
		Short:         "Operator tooling for the school portal document store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.cfg, c.logger = cfg, logr
			return nil
		},
	}
	root.AddCommand(c.bootstrapAdminCommand(), c.getCommand(), c.ensureSchemaCommand())
	return root
}

func (c *cli) openStore(ctx context.Context) (*docstore.RowStore, error) {
	return docstore.Open(ctx, c.cfg, c.logger)
}

func (c *cli) bootstrapAdminCommand() *cobra.Command {
	var req dto.RegisterSchoolAdminRequest
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create a school admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(context.Background()) //nolint:errcheck

			svc := service.NewRegistrationService(service.RegistrationRepositories{
				Users:        repository.NewUserRepository(store),
				Students:     repository.NewStudentRepository(store),
				Teachers:     repository.NewTeacherRepository(store),
				Parents:      repository.NewParentRepository(store),
				SchoolAdmins: repository.NewSchoolAdminRepository(store),
				Courses:      repository.NewCourseRepository(store),
				Claims:       repository.NewCourseClaimRepository(store),
				Assignments:  repository.NewTeacherAssignmentRepository(store),
				Audit:        repository.NewAuditRepository(store),
			}, nil, nil, c.logger, service.RegistrationConfig{DefaultAcademicYear: c.cfg.School.DefaultAcademicYear})

			res, err := svc.RegisterSchoolAdmin(ctx, req, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created school admin %s (user %s)\n", res.ProfileKey, res.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the subtree stored at a path, e.g. Courses or ClassMarks/course_math_5A",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(context.Background()) //nolint:errcheck

			var value interface{}
			found, err := store.Get(ctx, args[0], &value)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("nothing stored at %s", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		},
	}
}

func (c *cli) ensureSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create the documents table when the postgres driver is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Store.Driver != config.StoreDriverPostgres {
				fmt.Fprintf(cmd.OutOrStdout(), "store driver %q needs no schema\n", c.cfg.Store.Driver)
				return nil
			}
			ctx := cmd.Context()
			db, err := database.NewPostgres(ctx, c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck
			if err := docstore.EnsurePostgresSchema(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "documents table ready")
			return nil
		},
	}
}
