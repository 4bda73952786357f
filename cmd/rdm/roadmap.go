package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/store"
	"gorm.io/gorm"
)

func newRoadmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Roadmap management commands",
		Long:  "Create, inspect, export, import and configure course roadmaps.",
	}

	cmd.AddCommand(newRoadmapCreateCmd())
	cmd.AddCommand(newRoadmapListCmd())
	cmd.AddCommand(newRoadmapShowCmd())
	cmd.AddCommand(newRoadmapDeleteCmd())
	cmd.AddCommand(newRoadmapExportCmd())
	cmd.AddCommand(newRoadmapImportCmd())
	cmd.AddCommand(newRoadmapSettingsCmd())
	return cmd
}

func parseRoadmapID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid roadmap id %q", arg)
	}
	return id, nil
}

func newRoadmapCreateCmd() *cobra.Command {
	var (
		configPath string
		courseID   int64
		name       string
		legacyFile string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a roadmap in a course",
		Long:  "Creates an empty roadmap. With --legacy the file is stored as a legacy configuration and imported into rows on first use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapCreate(cmd, configPath, courseID, name, legacyFile)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().Int64Var(&courseID, "course", 0, "course id (required)")
	cmd.Flags().StringVar(&name, "name", "", "roadmap name")
	cmd.Flags().StringVar(&legacyFile, "legacy", "", "legacy configuration JSON file to import")
	cmd.MarkFlagRequired("course")
	return cmd
}

func runRoadmapCreate(cmd *cobra.Command, configPath string, courseID int64, name, legacyFile string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	opts := store.CreateOpts{CourseID: courseID, Name: strings.TrimSpace(name)}
	if legacyFile != "" {
		data, err := os.ReadFile(legacyFile)
		if err != nil {
			return fmt.Errorf("read legacy configuration: %w", err)
		}
		opts.Configuration = string(data)
	}

	rm, err := store.CreateRoadmap(gormDB, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created roadmap %d (%s) in course %d\n", rm.ID, rm.Name, rm.CourseID)
	return nil
}

func newRoadmapListCmd() *cobra.Command {
	var (
		configPath string
		courseID   int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roadmaps",
		Long:  "Lists roadmaps, optionally limited to one course. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapList(cmd, configPath, courseID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().Int64Var(&courseID, "course", 0, "filter by course id")
	return cmd
}

func runRoadmapList(cmd *cobra.Command, configPath string, courseID int64) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	rows, err := store.ListRoadmaps(gormDB, courseID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No roadmaps found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOURSE\tNAME\tCOLORS\tLEGACY")
	for _, rm := range rows {
		legacy := "-"
		if rm.Configuration != "" {
			legacy = "yes"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n", rm.ID, rm.CourseID, truncate(rm.Name, 40), rm.Colors, legacy)
	}
	w.Flush()
	return nil
}

func newRoadmapShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a roadmap and its tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	return cmd
}

func runRoadmapShow(cmd *cobra.Command, configPath, arg string) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
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

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %d\n", rm.ID)
	fmt.Fprintf(out, "Name:        %s\n", rm.Name)
	fmt.Fprintf(out, "Course:      %d\n", rm.CourseID)
	fmt.Fprintf(out, "Colors:      %d\n", settings.Colors)
	if settings.CLOPrefix != "" {
		fmt.Fprintf(out, "CLO prefix:  %s\n", settings.CLOPrefix)
	}
	fmt.Fprintf(out, "Objectives:  %d\n", len(settings.Objectives.LearningObjectives))
	fmt.Fprintln(out)
	printTree(out, doc)
	return nil
}

// printTree writes an indented outline of the tree.
func printTree(out io.Writer, doc *document.Document) {
	if len(doc.Phases) == 0 {
		fmt.Fprintln(out, "No phases.")
		return
	}
	for _, p := range doc.Phases {
		fmt.Fprintf(out, "Phase %d: %s\n", p.ID, p.Title)
		for _, c := range p.Cycles {
			fmt.Fprintf(out, "  Cycle %d: %s\n", c.ID, c.Title)
			for _, s := range c.Steps {
				line := fmt.Sprintf("    Step %d: %s [%s]", s.ID, s.RolloverText, s.StepIcon)
				if s.CompletionModules != "" {
					line += " activities " + s.CompletionModules
				}
				if s.CompletionExpectedReadable != "" && s.CompletionExpectedReadable != document.NoExpectedDate {
					line += " due " + s.CompletionExpectedReadable
				}
				fmt.Fprintln(out, line)
			}
		}
	}
}

func newRoadmapDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a roadmap and its whole tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapDelete(cmd, configPath, args[0], yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runRoadmapDelete(cmd *cobra.Command, configPath, arg string, skipConfirm bool) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	rm, err := store.GetRoadmap(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !skipConfirm && !confirmDelete(cmd, rm.Name, rm.ID) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := store.DeleteRoadmap(gormDB, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted roadmap %d\n", id)
	return nil
}

func confirmDelete(cmd *cobra.Command, name string, id int64) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete roadmap %d (%s) with all its phases, cycles and steps.\n", id, name)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

func newRoadmapExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a roadmap tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapExport(cmd, configPath, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runRoadmapExport(cmd *cobra.Command, configPath, arg, output string) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if _, err := store.ImportLegacy(gormDB, id, cfg.Location); err != nil {
		return err
	}
	doc, err := store.Load(gormDB, id, cfg.Location)
	if err != nil {
		return err
	}
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported roadmap %d to %s\n", id, output)
	return nil
}

type importOpts struct {
	remap string
	fresh bool
}

func newRoadmapImportCmd() *cobra.Command {
	var (
		configPath string
		opts       importOpts
	)

	cmd := &cobra.Command{
		Use:   "import <id> <file>",
		Short: "Save a JSON tree into a roadmap",
		Long: `Saves a configuration document into the roadmap. Nodes with ids are
updated, others inserted, and listed deletions applied. Use - to read from
stdin.

To copy a tree exported from another course, pass --fresh to insert every
node anew and --remap to translate gating activity ids (old=new pairs,
comma separated). Activities without a mapping are dropped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapImport(cmd, configPath, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().StringVar(&opts.remap, "remap", "", "activity id mapping, e.g. 12=42,13=43")
	cmd.Flags().BoolVar(&opts.fresh, "fresh", false, "insert every node as new, ignoring ids")
	return cmd
}

func runRoadmapImport(cmd *cobra.Command, configPath, arg, file string, opts importOpts) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}

	var data []byte
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	doc, err := document.ParseInLocation(data, cfg.Location)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.remap != "" {
		m, err := document.ParseMapping(opts.remap)
		if err != nil {
			return err
		}
		if dropped := doc.RemapActivities(m); dropped > 0 {
			fmt.Fprintf(out, "Dropped %d unmapped activity references\n", dropped)
		}
	}
	if opts.fresh {
		doc.Deletions = document.Deletions{}
	}

	var res *store.SaveResult
	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if _, err := store.ImportLegacy(tx, id, cfg.Location); err != nil {
			return err
		}
		var err error
		res, err = store.Save(tx, id, doc, store.SaveOpts{Conversion: opts.fresh})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved roadmap %d: %d inserted, %d updated, %d deleted\n",
		id, res.Inserted, res.Updated, res.Deleted)
	return nil
}

func newRoadmapSettingsCmd() *cobra.Command {
	var (
		configPath     string
		prefix         string
		alignment      int
		decoration     int
		position       int
		colors         int
		objectivesFile string
	)

	cmd := &cobra.Command{
		Use:   "settings <id>",
		Short: "Show or change roadmap display settings",
		Long:  "Without flags prints the current settings. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoadmapSettings(cmd, configPath, args[0], func(s *store.Settings) error {
				f := cmd.Flags()
				if f.Changed("prefix") {
					s.CLOPrefix = strings.TrimSpace(prefix)
				}
				if f.Changed("alignment") {
					s.CLOAlignment = alignment
				}
				if f.Changed("decoration") {
					s.CLODecoration = decoration
				}
				if f.Changed("position") {
					s.CLODisplayPosition = position
				}
				if f.Changed("colors") {
					s.Colors = colors
				}
				if f.Changed("objectives") {
					data, err := os.ReadFile(objectivesFile)
					if err != nil {
						return fmt.Errorf("read objectives: %w", err)
					}
					s.Objectives = document.ParseObjectives(data)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	f.StringVar(&prefix, "prefix", "", "learning objective label prefix")
	f.IntVar(&alignment, "alignment", 0, "cycle alignment: 0 left, 1 center, 2 right")
	f.IntVar(&decoration, "decoration", 0, "cycle decoration: 0 none, 1 line, 2 bracket")
	f.IntVar(&position, "position", 0, "objective label position: 0 above, 1 below, 2 hidden")
	f.IntVar(&colors, "colors", 0, "phase color palette id")
	f.StringVar(&objectivesFile, "objectives", "", "learning objectives JSON file")
	return cmd
}

func runRoadmapSettings(cmd *cobra.Command, configPath, arg string, apply func(*store.Settings) error) error {
	id, err := parseRoadmapID(arg)
	if err != nil {
		return err
	}
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	rm, err := store.GetRoadmap(gormDB, id)
	if err != nil {
		return err
	}

	settings := store.SettingsOf(rm)
	out := cmd.OutOrStdout()
	if cmd.Flags().NFlag() > 0 && !onlyConfigFlag(cmd) {
		if err := apply(&settings); err != nil {
			return err
		}
		if err := store.SaveSettings(gormDB, id, settings); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated settings of roadmap %d\n", id)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "prefix\t%s\n", settings.CLOPrefix)
	fmt.Fprintf(w, "alignment\t%d\n", settings.CLOAlignment)
	fmt.Fprintf(w, "decoration\t%d\n", settings.CLODecoration)
	fmt.Fprintf(w, "position\t%d\n", settings.CLODisplayPosition)
	fmt.Fprintf(w, "colors\t%d\n", settings.Colors)
	fmt.Fprintf(w, "objectives\t%d\n", len(settings.Objectives.LearningObjectives))
	w.Flush()
	return nil
}

// onlyConfigFlag reports whether --config is the only flag given.
func onlyConfigFlag(cmd *cobra.Command) bool {
	return cmd.Flags().NFlag() == 1 && cmd.Flags().Changed("config")
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
