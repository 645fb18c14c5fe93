package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-link-registry/pkg/config"
	"github.com/wadjakorntonsri/go-link-registry/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-registry/pkg/logger"
	"github.com/wadjakorntonsri/go-link-registry/pkg/ports"
)

// app is what every subcommand works against; opened in PersistentPreRunE, released by close.
type app struct {
	databaseURL string
	repo        ports.LinkRepository
	service     *services.LinkService
	log         *zap.Logger
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.repo != nil {
		_ = a.repo.Close()
		a.repo = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "linkreg",
		Short:         "Administer the link registry store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if a.databaseURL == "" {
				a.databaseURL = cfg.DatabaseURL
			}

			var err error
			a.log, err = logger.New(logger.Config{Service: "linkreg-cli", Level: "warn"})
			if err != nil {
				return err
			}

			a.repo, err = repository.Open(cmd.Context(), a.databaseURL)
			if err != nil {
				return err
			}
			a.service = services.NewLinkService(a.repo,
				services.WithLogger(a.log),
				services.WithMaxAttempts(cfg.CodeMaxAttempts),
				services.WithCodeLength(cfg.CodeLength),
			)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.databaseURL, "database-url", "", "store URL (defaults to DATABASE_URL)")

	root.AddCommand(
		newCreateCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}
