// Package client is a Go client for the duet HTTP API.
//
//	c, _ := client.New(client.WithBaseURL("http://localhost:5000"))
//
//	conv, _ := c.NewConversation(ctx)
//	reply, _ := c.Chat(ctx, client.ChatRequest{
//	    Message:        "summarise the report",
//	    Document:       "report.pdf",
//	    Reasoning:      true,
//	    ConversationID: conv,
//	})
//
//	_, _ = c.StoreMemory(ctx, client.Turn{
//	    ConversationID: conv,
//	    UserMessage:    &client.Message{Text: "summarise the report", Sender: "user"},
//	    BotMessage:     &client.Message{Text: reply, Sender: "bot"},
//	})
//	hits, _ := c.Search(ctx, conv, "report findings", 3)
//
// Errors returned by the server carry an *APIError that unwraps to the
// matching sentinel, so errors.Is(err, client.ErrNotFound) works.
package client
