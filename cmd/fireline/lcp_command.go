package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fireline/internal/landscape"
)

func newLandscapeCommand(ctx *commandContext) *cobra.Command {
	lcpCmd := &cobra.Command{
		Use:         "lcp",
		Short:       "Inspect and convert landscape files",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	lcpCmd.AddCommand(newLandscapeInfoCommand())
	lcpCmd.AddCommand(newLandscapeExportCommand())

	return lcpCmd
}

func newLandscapeInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <prefix>",
		Short: "Summarize a landscape file's header and layers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := strings.TrimSuffix(args[0], ".lcp")
			ls, err := landscape.ReadFile(prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w, h := ls.Size()
			fmt.Fprintf(out, "Landscape %s.lcp\n", prefix)
			fmt.Fprintf(out, "  Grid:       %d x %d cells at %g x %g\n", ls.NumNorth, ls.NumEast, ls.ResX, ls.ResY)
			fmt.Fprintf(out, "  Extent:     %g x %g (E %g..%g, N %g..%g)\n",
				w, h, ls.UTMWest, ls.UTMEast, ls.UTMSouth, ls.UTMNorth)
			fmt.Fprintf(out, "  Latitude:   %d\n", ls.Latitude)
			crown, err := ls.CrownPresent()
			if err != nil {
				return err
			}
			ground, err := ls.GroundPresent()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Crown:      %s\n", yesNo(crown))
			fmt.Fprintf(out, "  Ground:     %s\n", yesNo(ground))
			if ls.Description != "" {
				fmt.Fprintf(out, "  Description: %s\n", ls.Description)
			}

			names := append([]string(nil), landscape.RequiredLayerNames...)
			if crown {
				names = append(names, landscape.CrownLayerNames...)
			}
			if ground {
				names = append(names, landscape.GroundLayerNames...)
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				l, err := ls.Layer(name)
				if err != nil {
					return err
				}
				num := strconv.Itoa(int(l.Num))
				if l.Num == landscape.TooManyVals {
					num = ">" + strconv.Itoa(landscape.NumVals)
				}
				rows = append(rows, []string{
					name,
					strconv.Itoa(int(l.Lo)),
					strconv.Itoa(int(l.Hi)),
					num,
					strconv.Itoa(int(l.UnitOpts)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Layer", "Lo", "Hi", "Values", "Units"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newLandscapeExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <prefix>",
		Short: "Export a landscape file's layers as numpy arrays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := strings.TrimSuffix(args[0], ".lcp")
			ls, err := landscape.ReadFile(prefix)
			if err != nil {
				return err
			}
			if err := ls.ExportNumpy(prefix); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported numpy layers with prefix %s\n", prefix)
			return nil
		},
	}
}
