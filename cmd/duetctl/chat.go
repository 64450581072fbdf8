package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/duet/pkg/client"
)

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message",
		Long: `Send one message. --document and --link attach stored sources,
--reasoning escalates through the reasoning model.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringP("document", "d", "", "Stored document name")
	cmd.Flags().StringP("link", "l", "", "Stored link URL")
	cmd.Flags().BoolP("reasoning", "r", false, "Use the reasoning pipeline")
	cmd.Flags().StringP("conversation", "c", "", "Conversation id")
	cmd.Flags().StringArrayP("memory", "m", nil, "Memory to include (repeatable)")
	cmd.Flags().Bool("remember", false, "Store the exchange in the conversation memory")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}

	req := client.ChatRequest{Message: strings.Join(args, " ")}
	req.Document, _ = cmd.Flags().GetString("document")
	req.Link, _ = cmd.Flags().GetString("link")
	req.Reasoning, _ = cmd.Flags().GetBool("reasoning")
	req.ConversationID, _ = cmd.Flags().GetString("conversation")
	req.Memories, _ = cmd.Flags().GetStringArray("memory")
	remember, _ := cmd.Flags().GetBool("remember")

	reply, err := c.Chat(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	if remember {
		if req.ConversationID == "" {
			return fmt.Errorf("--remember requires --conversation")
		}
		turn := client.Turn{
			ConversationID: req.ConversationID,
			UserMessage:    &client.Message{Text: req.Message, Sender: "user"},
			BotMessage:     &client.Message{Text: reply, Sender: "bot"},
		}
		if req.Document != "" {
			turn.Documents = []string{req.Document}
		}
		if req.Link != "" {
			turn.Links = []string{req.Link}
		}
		if _, err := c.StoreMemory(cmd.Context(), turn); err != nil {
			return fmt.Errorf("remember: %w", err)
		}
	}

	if wantJSON(cmd) {
		return outputJSON(cmd, map[string]string{"response": reply})
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
