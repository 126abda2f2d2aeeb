package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reflow-ui/reflow/internal/config"
	"github.com/reflow-ui/reflow/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name  string
		port  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a reflow.json in the current directory",
		Long: `Create a reflow.json configuration file with default settings.

Examples:
  reflow init
  reflow init --name my-app --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(name, port, force)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultInspectorPort, "Inspector port")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing reflow.json")

	return cmd
}

func runInit(name string, port int, force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(wd) && !force {
		return errors.New("E082").
			WithDetail("reflow.json already exists in " + wd).
			WithSuggestion("Use --force to overwrite it")
	}

	if name == "" {
		name = filepath.Base(wd)
	}

	cfg := config.New()
	cfg.Name = name
	cfg.Inspector.Port = port

	if err := cfg.Validate(); err != nil {
		return err
	}

	path := filepath.Join(wd, config.ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	printBanner()
	success("Created %s", config.ConfigFileName)
	info("Project:   %s", name)
	info("Inspector: %s", cfg.InspectorURL())
	info("Next: install the inspector hooks on your scheduler and run 'reflow inspect'")

	return nil
}
