package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/roadmap/internal/icon"
)

func newIconCmd() *cobra.Command {
	var (
		percent float64
		color   string
		flags   string
		output  string
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "icon [name]",
		Short: "Render a step icon as SVG",
		Long:  "Renders a step icon with its progress ring, as served by the icon endpoint. Flags: n hides the ring, a adds the alert badge, s adds the star.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runIconList(cmd)
			}
			if len(args) == 0 {
				return fmt.Errorf("icon name is required")
			}
			return runIcon(cmd, args[0], percent, color, flags, output)
		},
	}

	cmd.Flags().Float64Var(&percent, "percent", 100, "percent complete, 0 to 100")
	cmd.Flags().StringVar(&color, "color", "", "ring and background color as hex")
	cmd.Flags().StringVar(&flags, "flags", "", "icon flags (n, a, s)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&list, "list", false, "list the available icons")
	return cmd
}

func runIcon(cmd *cobra.Command, name string, percent float64, color, flags, output string) error {
	svg, err := icon.Compose(name, percent, color, flags)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := cmd.OutOrStdout().Write(svg)
		return err
	}
	if err := os.WriteFile(output, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
	return nil
}

func runIconList(cmd *cobra.Command) error {
	catalog, err := icon.NewCatalog("")
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFILE\tNAME")
	for _, cat := range catalog.Categories {
		for _, e := range cat.Icons {
			fmt.Fprintf(w, "%s\t%s\t%s\n", cat.Name, e.File, e.Name)
		}
	}
	w.Flush()
	return nil
}
