package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/stamper/internal/config"
)

func newRootCommand(a *app) *cobra.Command {
	cobra.EnableCommandSorting = false

	root := &cobra.Command{
		Use:   "stamper",
		Short: "Upload, stamp and preview PDF documents.",
		Long: `Stamper stores PDF documents in a local directory, stamps a date, name
and comment onto every page of a copy, and renders first-page JPEG
thumbnails. The same directory backs the HTTP service started by serve.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.BaseConfigFile, "path to the base config file")
	root.PersistentFlags().StringVarP(&a.root, "root", "r", "", "storage root directory (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	root.AddCommand(newUploadCommand(a))
	root.AddCommand(newListCommand(a))
	root.AddCommand(newStampCommand(a))
	root.AddCommand(newThumbnailCommand(a))
	root.AddCommand(newDownloadCommand(a))
	root.AddCommand(newDeleteCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newOpenAPICommand(a))

	return root
}
