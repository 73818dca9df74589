package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ffglitch/internal/preflight"
	"ffglitch/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that ffedit and the configured directories are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			marks := newMarkers(out)

			outputPath := ""
			if outputDir != "" {
				outputPath = filepath.Join(outputDir, "output")
			}
			results := preflight.RunAll(cmd.Context(), cfg, outputPath)
			for _, r := range results {
				fmt.Fprintf(out, "%s %-18s %s\n", marks.result(r.Passed, r.Optional), r.Name, r.Detail)
			}

			fmt.Fprintln(out)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				detail := dep.Command
				if !dep.Available {
					detail = dep.Detail
				}
				fmt.Fprintf(out, "%s %-18s %s (%s)\n", marks.result(dep.Available, dep.Optional), dep.Name, detail, dep.Description)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "check",
					fmt.Sprintf("%d required check(s) failed", len(failed)), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Also check that this output directory is writable")
	return cmd
}

type markers struct {
	ok, warn, fail *color.Color
}

func newMarkers(w io.Writer) markers {
	m := markers{
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
	}
	f, isFile := w.(*os.File)
	if !isFile || !isatty.IsTerminal(f.Fd()) {
		m.ok.DisableColor()
		m.warn.DisableColor()
		m.fail.DisableColor()
	}
	return m
}

func (m markers) result(passed, optional bool) string {
	switch {
	case passed:
		return m.ok.Sprint("[ok]  ")
	case optional:
		return m.warn.Sprint("[warn]")
	default:
		return m.fail.Sprint("[FAIL]")
	}
}
