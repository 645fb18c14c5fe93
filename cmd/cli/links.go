package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/go-link-registry/pkg/core/domain"
)

func newCreateCmd(a *app) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "create <target-url>",
		Short: "Register a link, generating a code unless --code is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := a.service.Create(cmd.Context(), args[0], code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "custom code, 6-8 alphanumeric characters")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List links, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := a.service.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tCLICKS\tCREATED\tTARGET")
			for _, l := range links {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.Code, l.Clicks, l.CreatedAt.Format("2006-01-02 15:04"), l.TargetURL)
			}
			return w.Flush()
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a link permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.Delete(cmd.Context(), args[0])
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every link as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := a.service.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(links)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore links from an export, keeping codes and counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			var links []domain.Link
			if err := json.NewDecoder(f).Decode(&links); err != nil {
				return fmt.Errorf("decode failed: %w", err)
			}

			imported, skipped := 0, 0
			for i := range links {
				l := &links[i]
				err := a.service.Restore(cmd.Context(), l)
				switch {
				case err == nil:
					imported++
				case errors.Is(err, domain.ErrCodeConflict):
					a.log.Warn("skipping existing code", zap.String("code", l.Code))
					skipped++
				case errors.Is(err, domain.ErrInvalidCode),
					errors.Is(err, domain.ErrInvalidTarget),
					errors.Is(err, domain.ErrInvalidCounters):
					a.log.Warn("skipping invalid link", zap.String("code", l.Code), zap.Error(err))
					skipped++
				default:
					return fmt.Errorf("import %s: %w", l.Code, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links, skipped %d\n", imported, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file produced by export")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
