package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/palette"
	"github.com/zulandar/roadmap/internal/store"
	"github.com/zulandar/roadmap/internal/tui"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newEditCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "edit <roadmap-id>",
		Short: "Edit a roadmap tree in the terminal",
		Long:  "Opens an interactive editor for the roadmap's phases, cycles and steps. Changes are written when saved with s.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	return cmd
}

func runEdit(cmd *cobra.Command, configPath, arg string) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("edit needs an interactive terminal")
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	if _, err := store.ImportLegacy(gormDB, id, cfg.Location); err != nil {
		return err
	}
	rm, err := store.GetRoadmap(gormDB, id)
	if err != nil {
		return err
	}
	doc, err := store.Load(gormDB, id, cfg.Location)
	if err != nil {
		return err
	}
	settings := store.SettingsOf(rm)

	model := tui.New(doc, tui.Options{
		Title:      fmt.Sprintf("%s (roadmap %d)", rm.Name, rm.ID),
		Palette:    palette.New(cfg.ColorSets).Lookup(settings.Colors),
		Objectives: settings.Objectives,
		Save:       saveFunc(gormDB, id, cfg.Location, settings),
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run editor: %w", err)
	}
	if model.Dirty() {
		fmt.Fprintln(cmd.OutOrStdout(), "Unsaved changes were discarded.")
	}
	return nil
}

// saveFunc writes the tree and objectives in one transaction and reloads
// the stored tree so new nodes pick up their ids.
func saveFunc(gormDB *gorm.DB, id int64, loc *time.Location, settings store.Settings) tui.SaveFunc {
	return func(doc *document.Document, objectives document.Objectives) (*document.Document, string, error) {
		var res *store.SaveResult
		s := settings
		s.Objectives = objectives
		err := gormDB.Transaction(func(tx *gorm.DB) error {
			var err error
			if res, err = store.Save(tx, id, doc, store.SaveOpts{}); err != nil {
				return err
			}
			return store.SaveSettings(tx, id, s)
		})
		if err != nil {
			return nil, "", err
		}
		stored, err := store.Load(gormDB, id, loc)
		if err != nil {
			return nil, "", err
		}
		return stored, fmt.Sprintf("saved: %d inserted, %d updated, %d deleted", res.Inserted, res.Updated, res.Deleted), nil
	}
}
