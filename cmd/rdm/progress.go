package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/course"
	"github.com/zulandar/roadmap/internal/palette"
	"github.com/zulandar/roadmap/internal/progress"
	"github.com/zulandar/roadmap/internal/store"
)

func newProgressCmd() *cobra.Command {
	var (
		configPath string
		userID     int64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "progress <roadmap-id>",
		Short: "Show a learner's progress through a roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(cmd, configPath, args[0], userID, asJSON)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user id (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rendered view as JSON")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runProgress(cmd *cobra.Command, configPath, arg string, userID int64, asJSON bool) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id %d", userID)
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
	snap, err := course.NewTracker(gormDB, rm.CourseID).ForUser(userID)
	if err != nil {
		return err
	}
	settings := store.SettingsOf(rm)
	view := progress.NewRenderer(snap, progress.Options{
		Location:   cfg.Location,
		Palette:    palette.New(cfg.ColorSets).Lookup(settings.Colors),
		Objectives: settings.Objectives,
		CLOPrefix:  settings.CLOPrefix,
		Display: progress.Display{
			Position:   settings.CLODisplayPosition,
			Alignment:  settings.CLOAlignment,
			Decoration: settings.CLODecoration,
		},
	}).Render(doc)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(out, "%s: %d%% complete for user %d\n", rm.Name, view.Percent, userID)
	for _, p := range view.Phases {
		fmt.Fprintf(out, "\n%s %s\n", mark(p.Complete), p.Title)
		for _, c := range p.Cycles {
			line := fmt.Sprintf("  %s %s", mark(c.Complete), c.Title)
			if c.LearningObjectives != "" {
				line += " (" + c.LearningObjectives + ")"
			}
			fmt.Fprintln(out, line)
			for _, s := range c.Steps {
				fmt.Fprintf(out, "    %s %3d%% %s%s\n", mark(s.Complete), s.Percent, s.RolloverText, stepNotes(s))
			}
		}
	}
	return nil
}

func mark(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func stepNotes(s progress.StepView) string {
	var notes []string
	if s.ExpectedReadable != "" {
		notes = append(notes, "due "+s.ExpectedReadable)
	}
	if s.Alert {
		notes = append(notes, "alert")
	}
	if s.CompletedOnTime {
		notes = append(notes, "on time")
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}
