package main

import (
	"github.com/spf13/cobra"

	"saitan/internal/archive"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var outputDirFlag string
	var logLevelFlag string
	var opts archive.Options

	ctx := newCommandContext(&configFlag, &outputDirFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:   "saitan [flags] <url>",
		Short: "Archive a URL to the Wayback Machine, archive.today and a local WARC",
		Long: "saitan archives a single URL with the selected actions and prints a report.\n" +
			"The timestamp, checksum and upload actions act on the local copy and need -l.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The archive command validates its URL before touching config.
			if cmd == cmd.Root() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, ctx, args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.Snapshot, "waybackmachine", "w", false, "Save a snapshot with the Wayback Machine")
	flags.BoolVarP(&opts.Secondary, "archiveis", "a", false, "Save a snapshot with archive.today")
	flags.BoolVarP(&opts.LocalCapture, "localcopy", "l", false, "Capture a local WARC copy with wget")
	flags.BoolVarP(&opts.Timestamp, "opentimestamp", "o", false, "Timestamp the local copy with OpenTimestamps (needs -l)")
	flags.BoolVarP(&opts.Checksum, "sha256", "s", false, "Write a SHA-256 checksum of the local copy (needs -l)")
	flags.BoolVarP(&opts.Upload, "upload", "u", false, "Upload the local copy and its sidecars to S3 (needs -l)")
	flags.StringVarP(&outputDirFlag, "output-dir", "d", "", "Directory for local copies (overrides paths.output_dir)")

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
