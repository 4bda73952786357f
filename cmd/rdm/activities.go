package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/course"
	"github.com/zulandar/roadmap/internal/models"
)

func newActivitiesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "activities <course-id>",
		Short: "List a course's completable activities by section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActivities(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	return cmd
}

func runActivities(cmd *cobra.Command, configPath, arg string) error {
	courseID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || courseID <= 0 {
		return fmt.Errorf("invalid course id %q", arg)
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	sections, err := course.ListSections(gormDB, courseID, cfg.Location)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sections) == 0 {
		fmt.Fprintln(out, "No activities found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tID\tNAME\tEXPECTED")
	for _, sec := range sections {
		for _, a := range sec.CourseModules {
			expected := a.CompletionExpectedReadable
			if expected == "" {
				expected = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", truncate(sec.Name, 24), a.ID, truncate(a.Name, 40), expected)
		}
	}
	w.Flush()
	return nil
}

var completionStates = map[string]int{
	"incomplete": models.CompletionIncomplete,
	"complete":   models.CompletionComplete,
	"pass":       models.CompletionCompletePass,
	"fail":       models.CompletionCompleteFail,
}

func newCompleteCmd() *cobra.Command {
	var (
		configPath string
		userID     int64
		state      string
	)

	cmd := &cobra.Command{
		Use:   "complete <activity-id>",
		Short: "Record a learner's completion of an activity",
		Long:  "Records completion state for an activity, as the host platform would. States: incomplete, complete, pass, fail.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, configPath, args[0], userID, state)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to roadmap config file")
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user id (required)")
	cmd.Flags().StringVar(&state, "state", "complete", "completion state")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runComplete(cmd *cobra.Command, configPath, arg string, userID int64, state string) error {
	activityID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || activityID <= 0 {
		return fmt.Errorf("invalid activity id %q", arg)
	}
	s, ok := completionStates[strings.ToLower(state)]
	if !ok {
		return fmt.Errorf("invalid state %q", state)
	}
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := course.SetCompletion(gormDB, activityID, userID, s, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Activity %d marked %s for user %d\n", activityID, strings.ToLower(state), userID)
	return nil
}
