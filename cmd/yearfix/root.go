package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"yearfix/internal/config"
	"yearfix/internal/logging"
)

type appContext struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	var configPath string
	app := &appContext{}

	root := &cobra.Command{
		Use:           "yearfix",
		Short:         "Reconcile album release years across a music library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			app.cfg = cfg
			app.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newRunCommand(app))
	root.AddCommand(newPendingCommand(app))
	root.AddCommand(newConfigCommand())
	return root
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if err := config.WriteSample(path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
