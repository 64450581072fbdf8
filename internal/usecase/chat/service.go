// Package chat runs the per-request decision table and the
// simple -> reasoned -> simple escalation pipeline.
package chat

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain/chat"
	dommem "github.com/kailas-cloud/duet/internal/domain/memory"
	"github.com/kailas-cloud/duet/internal/logger"
	"github.com/kailas-cloud/duet/internal/metrics"
	"github.com/kailas-cloud/duet/internal/usecase/assemble"
)

// Message senders recorded in stored turns.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Service answers chat requests.
type Service struct {
	gateway   Gateway
	assembler Assembler
	memory    MemoryStore
	maxChars  int
}

// New creates a Service without automatic memory.
func New(gw Gateway, asm Assembler) *Service {
	return &Service{gateway: gw, assembler: asm, maxChars: chat.DefaultMaxMessageChars}
}

// WithMaxMessageChars overrides the message length limit.
func (s *Service) WithMaxMessageChars(n int) *Service {
	if n > 0 {
		s.maxChars = n
	}
	return s
}

// WithAutoMemory enables loading recent memories into requests that carry a
// conversation id but no memories, and storing each answered turn.
func (s *Service) WithAutoMemory(m MemoryStore) *Service {
	s.memory = m
	return s
}

// Respond classifies the request and runs its route. It never returns a Go error:
// failures are carried in Reply.Err and rendered by Reply.Response.
func (s *Service) Respond(ctx context.Context, req chat.Request) chat.Reply {
	route := chat.Classify(&req, s.maxChars)
	metrics.ChatRoutesTotal.WithLabelValues(string(route)).Inc()

	ctx = logger.With(ctx, zap.String("chat_route", string(route)))
	reply := s.run(ctx, route, &req)
	if reply.Failed() {
		logger.FromContext(ctx).Info("chat turn failed", zap.Error(reply.Err))
	}
	return reply
}

func (s *Service) run(ctx context.Context, route chat.Route, req *chat.Request) chat.Reply {
	if err := route.Err(); err != nil {
		return chat.Reply{Route: route, Err: err}
	}

	if route == chat.RouteFarewell {
		text, err := s.gateway.Invoke(ctx, chat.ModelSimple, chat.FarewellPrompt)
		if err != nil {
			return chat.Reply{Route: route, Err: fmt.Errorf("farewell: %w", err)}
		}
		return chat.Reply{Route: route, Text: text}
	}

	s.loadMemories(ctx, req)

	asm, err := s.assembler.Build(ctx, req, selectionFor(route))
	if err != nil {
		return chat.Reply{Route: route, Err: err}
	}

	var text string
	if route == chat.RouteEscalate {
		text, err = s.escalate(ctx, asm.Prompt)
	} else {
		text, err = s.gateway.Invoke(ctx, chat.ModelSimple, asm.Prompt)
	}
	if err != nil {
		return chat.Reply{Route: route, Err: err}
	}

	s.remember(ctx, req, text, asm)
	return chat.Reply{Route: route, Text: text}
}

// escalate runs the three model calls strictly in sequence. The first failure aborts.
func (s *Service) escalate(ctx context.Context, prompt string) (string, error) {
	simple, err := s.gateway.Invoke(ctx, chat.ModelSimple, prompt)
	if err != nil {
		return "", fmt.Errorf("escalation simple step: %w", err)
	}
	reasoned, err := s.gateway.Invoke(ctx, chat.ModelReasoned, chat.EscalationRequestPrefix+simple)
	if err != nil {
		return "", fmt.Errorf("escalation reasoned step: %w", err)
	}
	final, err := s.gateway.Invoke(ctx, chat.ModelSimple, chat.EscalationReplyPrefix+reasoned)
	if err != nil {
		return "", fmt.Errorf("escalation final step: %w", err)
	}
	return final, nil
}

func selectionFor(route chat.Route) assemble.Selection {
	switch route {
	case chat.RouteEscalate:
		return assemble.SelectDocument | assemble.SelectLink
	case chat.RouteDocument:
		return assemble.SelectDocument
	case chat.RouteLink:
		return assemble.SelectLink
	default:
		return 0
	}
}

func (s *Service) loadMemories(ctx context.Context, req *chat.Request) {
	if s.memory == nil || req.ConversationID == "" || len(req.Memories) > 0 {
		return
	}
	records, err := s.memory.LatestRecords(ctx, req.ConversationID)
	if err != nil {
		logger.FromContext(ctx).Warn("load memories", zap.Error(err))
		return
	}
	req.Memories = lo.Map(records, func(r dommem.Record, _ int) string { return r.Text })
}

func (s *Service) remember(ctx context.Context, req *chat.Request, answer string, asm assemble.Assembled) {
	if s.memory == nil || req.ConversationID == "" {
		return
	}
	turn := &dommem.Turn{
		ConversationID: req.ConversationID,
		UserMessage:    &dommem.Message{Text: req.Message, Sender: SenderUser},
		BotMessage:     &dommem.Message{Text: answer, Sender: SenderBot},
		Documents:      asm.Documents,
		Links:          asm.Links,
	}
	if _, err := s.memory.Store(ctx, turn); err != nil {
		logger.FromContext(ctx).Warn("store memory", zap.Error(err))
	}
}
