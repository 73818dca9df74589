package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ffglitch/internal/document"
	"ffglitch/internal/transform"
)

func newFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "features",
		Short:       "List the features ffedit can export",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := cases.Title(language.English, cases.NoLower)
			rows := [][]string{}
			for _, f := range document.Features() {
				rows = append(rows, []string{f.Name, title.String(f.Description)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{textColumn("Feature"), textColumn("Description")}, rows))
			return nil
		},
	}
}

func newTransformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "transforms",
		Short:       "List built-in transforms",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			for _, b := range transform.Builtins() {
				features := "any"
				if len(b.Features) > 0 {
					features = joinComma(b.Features)
				}
				rows = append(rows, []string{b.Name, features, b.Description})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]column{textColumn("Name"), textColumn("Features"), textColumn("Description")}, rows))
			fmt.Fprintf(out, "Use -s <name> or -s %s<name>; any other -s value is loaded as a plugin executable.\n", transform.BuiltinPrefix)
			return nil
		},
	}
}
