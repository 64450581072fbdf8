package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/duet/pkg/client"
)

func NewUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document (.txt, .md, .json, .pdf)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			src, err := c.UploadDocument(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			return printSource(cmd, src)
		},
	}
}

func NewCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <url>",
		Short: "Fetch a web page and store its text as a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			src, err := c.AddLink(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("crawl: %w", err)
			}
			return printSource(cmd, src)
		},
	}
}

func NewDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			names, err := c.ListDocuments(cmd.Context())
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}
			return printNames(cmd, names)
		},
	}
}

func NewLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List stored links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			names, err := c.ListLinks(cmd.Context())
			if err != nil {
				return fmt.Errorf("list links: %w", err)
			}
			return printNames(cmd, names)
		},
	}
}

func printSource(cmd *cobra.Command, src client.Source) error {
	if wantJSON(cmd) {
		return outputJSON(cmd, src)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d chars)\n", src.Name, src.Characters)
	return nil
}

func printNames(cmd *cobra.Command, names []string) error {
	if wantJSON(cmd) {
		return outputJSON(cmd, names)
	}
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}
