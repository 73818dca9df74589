package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ffglitch/internal/document"
	"ffglitch/internal/fileutil"
	"ffglitch/internal/services"
	"ffglitch/internal/sidecar"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var feature string
	var input string

	cmd := &cobra.Command{
		Use:   "validate <sidecar.json>",
		Short: "Check a sidecar document against the schema and, optionally, an input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return services.Wrap(services.ErrNotFound, "validate", "read", path, err)
			}
			if err := document.Validate(path, data); err != nil {
				return err
			}
			doc, err := document.Decode(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Schema: ok")
			fmt.Fprintf(out, "Features: %s\n", joinComma(doc.Features))
			fmt.Fprintf(out, "Streams: %d, frames: %d\n", len(doc.Streams), doc.FrameCount())
			if version := doc.Version(); version != "" {
				fmt.Fprintf(out, "ffedit version: %s\n", version)
			}
			for _, name := range doc.Features {
				fmt.Fprintf(out, "Frames with %s: %d\n", name, doc.FramesWith(name))
			}

			feature = strings.TrimSpace(feature)
			input = strings.TrimSpace(input)
			if feature == "" && input == "" {
				return nil
			}
			if feature == "" || input == "" {
				return services.Wrap(services.ErrConfiguration, "validate", "cache check",
					"--feature and --input must be given together", nil)
			}
			digest, err := fileutil.SHA1Sum(input)
			if err != nil {
				return services.Wrap(services.ErrNotFound, "validate", "hash input", input, err)
			}
			reason, detail := sidecar.Check(doc, feature, digest)
			if reason == sidecar.MissNone {
				fmt.Fprintf(out, "Reusable for %s (%s): %s\n", input, feature, yesNo(true))
				return nil
			}
			fmt.Fprintf(out, "Reusable for %s (%s): %s (%s)\n", input, feature, yesNo(false), detail)
			return nil
		},
	}

	cmd.Flags().StringVarP(&feature, "feature", "f", "", "Feature the sidecar should hold")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input media the sidecar should describe")
	return cmd
}
