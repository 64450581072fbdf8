package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/duet/pkg/client"
)

func NewConversationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conversation",
		Short: "Start a new conversation and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			id, err := c.NewConversation(cmd.Context())
			if err != nil {
				return fmt.Errorf("new conversation: %w", err)
			}
			if wantJSON(cmd) {
				return outputJSON(cmd, map[string]string{"conversationId": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func NewRememberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remember <conversation-id>",
		Short: "Store a turn in a conversation's memory",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemember,
	}

	cmd.Flags().StringP("user", "u", "", "User message")
	cmd.Flags().StringP("bot", "b", "", "Bot message")
	cmd.Flags().StringArray("document", nil, "Document text (repeatable)")
	cmd.Flags().StringArray("link", nil, "Link text (repeatable)")
	return cmd
}

func runRemember(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}

	turn := client.Turn{ConversationID: args[0]}
	if text, _ := cmd.Flags().GetString("user"); text != "" {
		turn.UserMessage = &client.Message{Text: text, Sender: "user"}
	}
	if text, _ := cmd.Flags().GetString("bot"); text != "" {
		turn.BotMessage = &client.Message{Text: text, Sender: "bot"}
	}
	turn.Documents, _ = cmd.Flags().GetStringArray("document")
	turn.Links, _ = cmd.Flags().GetStringArray("link")

	md, err := c.StoreMemory(cmd.Context(), turn)
	if err != nil {
		return fmt.Errorf("remember: %w", err)
	}
	if wantJSON(cmd) {
		return outputJSON(cmd, md)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored at %s\n", md.Timestamp)
	return nil
}

func NewRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall <conversation-id> <query>",
		Short: "Search a conversation's memory by meaning",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRecall,
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (server default when 0)")
	return cmd
}

func runRecall(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("number")

	hits, err := c.Search(cmd.Context(), args[0], strings.Join(args[1:], " "), limit)
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}
	if wantJSON(cmd) {
		return outputJSON(cmd, hits)
	}
	for _, h := range hits {
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n", h.Score, h.Text)
	}
	return nil
}

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <conversation-id>",
		Short: "Show stored turns of a conversation",
		Long:  `Show the most recent turns, newest first. --all lists every stored record.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}

	cmd.Flags().BoolP("all", "a", false, "List every record instead of the latest")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	var records []client.Metadata
	if all {
		records, err = c.Retrieve(cmd.Context(), args[0])
	} else {
		records, err = c.RetrieveLatest(cmd.Context(), args[0])
	}
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if wantJSON(cmd) {
		return outputJSON(cmd, records)
	}
	for _, md := range records {
		printTurn(cmd, md)
	}
	return nil
}

func printTurn(cmd *cobra.Command, md client.Metadata) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, md.Timestamp)
	if md.UserMessage != nil {
		fmt.Fprintf(out, "  user: %s\n", md.UserMessage.Text)
	}
	if md.BotMessage != nil {
		fmt.Fprintf(out, "  bot:  %s\n", md.BotMessage.Text)
	}
}
