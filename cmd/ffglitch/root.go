package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	return newRootCommandWithContext(newCommandContext(&configFlag), &configFlag)
}

func newRootCommandWithContext(ctx *commandContext, configFlag *string) *cobra.Command {
	var opts glitchOptions

	rootCmd := &cobra.Command{
		Use:   "ffglitch -i <input> -f <feature> -s <transform> -o <output>",
		Short: "Glitch media by editing codec metadata",
		Long: "ffglitch exports per-frame codec metadata with ffedit, runs a transform over it,\n" +
			"and applies the result back onto the input to produce a new file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.empty() {
				return cmd.Help()
			}
			return runGlitch(cmd, ctx, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Input media file")
	flags.StringVarP(&opts.feature, "feature", "f", "", "Feature to edit (see `ffglitch features`)")
	flags.StringVarP(&opts.source, "script", "s", "", "Transform: built-in name, builtin:<name>, or plugin path")
	flags.StringVarP(&opts.output, "output", "o", "", "Output media file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Echo ffedit commands and pass through their output")
	flags.BoolVarP(&opts.keep, "keep", "k", false, "Keep the temporary document after a successful run")
	flags.BoolVar(&opts.force, "force", false, "Ignore an existing sidecar and export again")
	flags.BoolVar(&opts.watch, "watch", false, "Rerun whenever the input or plugin changes")

	rootCmd.PersistentFlags().StringVarP(configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newFeaturesCommand())
	rootCmd.AddCommand(newTransformsCommand())
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
