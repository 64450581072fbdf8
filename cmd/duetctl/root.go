package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/duet/pkg/client"
)

const serverEnv = "DUET_SERVER"

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "duetctl",
		Short:         "Command line client for the duet assistant",
		Long:          `Chat with a duet server, manage conversation memory and upload sources.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	rootCmd.AddCommand(
		NewChatCmd(),
		NewConversationCmd(),
		NewRememberCmd(),
		NewRecallCmd(),
		NewHistoryCmd(),
		NewUploadCmd(),
		NewCrawlCmd(),
		NewDocumentsCmd(),
		NewLinksCmd(),
		NewHealthCmd(),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	server := os.Getenv(serverEnv)
	if server == "" {
		server = client.DefaultBaseURL
	}
	cmd.PersistentFlags().String("server", server, "Server base URL (env "+serverEnv+")")
	cmd.PersistentFlags().Duration("timeout", 3*time.Minute, "Request timeout")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

// connect builds a client from the persistent flags.
func connect(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(
		client.WithBaseURL(server),
		client.WithTimeout(timeout),
		client.WithUserAgent("duetctl/"+cmd.Root().Version),
	)
}

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
