package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/config"
	"github.com/zulandar/roadmap/internal/db"
	"gorm.io/gorm"
)

const defaultConfigPath = "roadmap.yaml"

// connectFromConfig loads the config file and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}

	return cfg, gormDB, nil
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the roadmap database",
		Long:  "Creates the database when the driver needs it, migrates all tables and optionally seeds a demo course.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, seed)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed a demo course with activities and an empty roadmap")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string, seed bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded %s config from %s\n", cfg.Database.Driver, configPath)

	if err := db.CreateDatabase(cfg.Database); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if seed {
		rm, err := db.SeedDemo(gormDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded demo course %d with roadmap %d\n", rm.CourseID, rm.ID)
	}

	fmt.Fprintln(out, "\nRoadmap database initialized successfully.")
	return nil
}
