package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/stamper/internal/documents"
	"github.com/JaimeStill/stamper/internal/naming"
	"github.com/JaimeStill/stamper/pkg/formatting"
)

func newUploadCommand(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Store a local PDF under its file name",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&name, "name", "", "store under this name instead of the file's base name")

	cmd.RunE = a.documents(func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if name == "" {
			name = filepath.Base(path)
		}

		stored, err := a.docs.Upload(cmd.Context(), data, mimetype.Detect(data).String(), name)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", stored, formatting.FormatBytes(int64(len(data)), 1))
		return nil
	})
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print documents as JSON")

	cmd.RunE = a.documents(func(cmd *cobra.Command, args []string) error {
		docs, err := a.docs.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}

		for _, doc := range docs {
			if doc.Stamped() {
				fmt.Fprintf(out, "%s\tstamped from %s\n", doc.Name, doc.SourceName)
				continue
			}
			fmt.Fprintln(out, doc.Name)
		}
		return nil
	})
	return cmd
}

func newStampCommand(a *app) *cobra.Command {
	var stamp documents.StampCommand

	cmd := &cobra.Command{
		Use:   "stamp <name>",
		Short: "Write a stamped copy of a stored document",
		Long: `Stamp draws three lines ("Date: ...", "Name: ...", "Comment: ...") at the
bottom left of every page and stores the result as stamped_<name>,
replacing any previous stamped copy.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&stamp.Date, "date", "", "date line text")
	cmd.Flags().StringVar(&stamp.Name, "name", "", "name line text")
	cmd.Flags().StringVar(&stamp.Comment, "comment", "", "comment line text")
	for _, flag := range []string{"date", "name", "comment"} {
		cmd.MarkFlagRequired(flag)
	}

	cmd.RunE = a.documents(func(cmd *cobra.Command, args []string) error {
		stamp.Source = args[0]
		stamped, err := a.docs.Stamp(cmd.Context(), stamp)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stamped)
		return nil
	})
	return cmd
}

func newThumbnailCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "thumbnail <name>",
		Short: "Write the first-page JPEG preview of a document",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default: thumbnail name in the working directory)")

	cmd.RunE = a.documents(func(cmd *cobra.Command, args []string) error {
		data, err := a.docs.Thumbnail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd, output, naming.ThumbnailName(args[0]), data)
	})
	return cmd
}

func newDownloadCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Copy a stored document to a local file",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file, or - for stdout (default: document name)")

	cmd.RunE = a.documents(func(cmd *cobra.Command, args []string) error {
		data, err := a.docs.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd, output, args[0], data)
	})
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a document and its thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: a.documents(func(cmd *cobra.Command, args []string) error {
			deleted, err := a.docs.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s not found\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

// writeOutput writes data to output, to stdout when output is "-", or to
// fallback in the working directory when output is empty.
func writeOutput(cmd *cobra.Command, output, fallback string, data []byte) error {
	if output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if output == "" {
		output = fallback
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", output, formatting.FormatBytes(int64(len(data)), 1))
	return nil
}
