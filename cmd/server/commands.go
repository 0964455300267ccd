package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ontology/internal/codec"
	"ontology/internal/loader"
	"ontology/internal/provider"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the provider schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening a provider migrates it
			return withProvider(cmd.Context(), flags, func(ctx context.Context, p provider.DataProvider, log *logrus.Logger) error {
				log.Info("schema is up to date")
				return nil
			})
		},
	}
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	var personID string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a person; it is printed once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), flags, func(ctx context.Context, p provider.DataProvider, _ *logrus.Logger) error {
				tok, err := p.Auth().IssueToken(ctx, personID)
				if err != nil {
					return fmt.Errorf("issue token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}
	issue.Flags().StringVar(&personID, "person", "", "id of the person (a thing of type creator)")
	issue.MarkFlagRequired("person")

	token.AddCommand(issue)
	return token
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML or JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvider(cmd.Context(), flags, func(ctx context.Context, p provider.DataProvider, log *logrus.Logger) error {
				res, err := loader.Load(ctx, p, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %s\n", args[0], res)
				return nil
			})
		},
	}
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		output string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Export every record as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec.ForFormat(format)
			if err != nil {
				return err
			}
			return withProvider(cmd.Context(), flags, func(ctx context.Context, p provider.DataProvider, _ *logrus.Logger) error {
				s, err := loader.Export(ctx, p)
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create output: %w", err)
					}
					defer f.Close()
					w = f
				}
				return c.Export(s, w)
			})
		},
	}
	export.Flags().StringVar(&format, "format", "yaml", "output format (yaml|json)")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return export
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective config (defaults plus overrides) to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "ontology.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}
