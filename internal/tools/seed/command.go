package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/config"
	"github.com/stewardhq/steward/internal/database"
	"github.com/stewardhq/steward/internal/tools/common"
	"github.com/stewardhq/steward/internal/tools/ui"
)

type options struct {
	envFile              string
	bootstrapMasterEmail string
	ci                   bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapMasterEmail, "bootstrap-master-email", "", "override bootstrap master email")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newDemoProductsCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply default seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.BootstrapMasterEmail
				if opts.bootstrapMasterEmail != "" {
					email = opts.bootstrapMasterEmail
				}
				report, err := database.SeedSync(db, email)
				if err != nil {
					return nil, err
				}
				details := []string{
					fmt.Sprintf("created roles: %d, created grants: %d", report.CreatedRoles, report.CreatedGrants),
				}
				if email != "" {
					details = append(details, "bootstrap master role assignment attempted for: "+email)
				}
				if report.Noop {
					details = append(details, "no changes: seed data already present")
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed apply", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, _, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				email := cfg.BootstrapMasterEmail
				if opts.bootstrapMasterEmail != "" {
					email = opts.bootstrapMasterEmail
				}
				details := []string{
					"would ensure roles: master, editor, viewer",
					"would ensure a wildcard capability grant per role",
				}
				if email != "" {
					details = append(details, fmt.Sprintf("would assign master role to operator if present: %s", email))
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed dry-run", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDemoProductsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo-products",
		Short: "Insert demo catalog products for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed demo-products", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				created, err := database.SeedDemoProducts(db)
				if err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("created %d demo products", created)}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "seed demo-products", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
