// Package chat runs an interactive research session on top of a Researcher.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/bububa/research-assistant/components"
	"github.com/bububa/research-assistant/research"
	"github.com/bububa/research-assistant/schema"
)

const (
	Prompt  = "research> "
	Welcome = "AI Research Assistant. Type a research question, /help for commands, quit to exit."
)

// Researcher answers research queries, *research.Orchestrator implements it
type Researcher interface {
	Research(ctx context.Context, query string) string
	Stats() research.Stats
}

// Session owns the chat history of one user
type Session struct {
	id         string
	researcher Researcher
	memory     *components.Memory
	processed  atomic.Int64
	log        *slog.Logger
}

// NewSession returns a Session keeping at most maxMessages messages, 0
// keeps them all
func NewSession(researcher Researcher, maxMessages int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		researcher: researcher,
		memory:     components.NewMemory(maxMessages),
		log:        logger.With("session_id", id),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Processed returns the number of queries answered
func (s *Session) Processed() int64 {
	return s.processed.Load()
}

func (s *Session) History() []components.Message {
	return s.memory.History()
}

func (s *Session) Reset() {
	s.memory.Reset()
}

// Ask researches text and records the exchange as one turn
func (s *Session) Ask(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	s.memory.NewTurn()
	s.memory.NewMessage(components.UserRole, schema.NewInput(text))
	report := s.researcher.Research(ctx, text)
	s.memory.NewMessage(components.AssistantRole, schema.NewOutput(report))
	s.processed.Inc()
	s.log.Debug("chat: answered", "processed", s.processed.Load())
	return report
}

// Run reads queries from in until EOF, quit or ctx is done
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, Welcome)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "/help":
			fmt.Fprintln(out, "Commands: /clear resets the history, /history prints it, /stats prints counters, quit exits.")
		case "/clear":
			s.Reset()
			fmt.Fprintln(out, "History cleared.")
		case "/history":
			s.writeHistory(out)
		case "/stats":
			s.writeStats(out)
		default:
			fmt.Fprintln(out, s.Ask(ctx, line))
		}
	}
}

func (s *Session) writeHistory(out io.Writer) {
	history := s.History()
	if len(history) == 0 {
		fmt.Fprintln(out, "No history yet.")
		return
	}
	for _, msg := range history {
		var text string
		switch v := msg.Content().(type) {
		case *schema.Input:
			text = v.ChatMessage
		case *schema.Output:
			text = v.ChatMessage
		default:
			text = msg.StringifiedContent()
		}
		fmt.Fprintf(out, "[%s] %s\n", msg.Role(), text)
	}
}

func (s *Session) writeStats(out io.Writer) {
	stats := s.researcher.Stats()
	fmt.Fprintf(out, "Session %s: %d queries processed\n", s.id, s.Processed())
	fmt.Fprintf(out, "Orchestrator: %d queries, %d invalid\n", stats.Queries, stats.Invalid)
	for _, stage := range []research.Stage{research.StageConfiguredLLM, research.StageLocalLLM, research.StageFallbackSearch} {
		st := stats.ByStage[stage.String()]
		fmt.Fprintf(out, "- %s: %d attempts, %d successes, %d failures, %d skipped\n", stage, st.Attempts, st.Successes, st.Failures, st.Skipped)
	}
}
