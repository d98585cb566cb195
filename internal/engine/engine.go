package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
)

// StartRequest describes the session to start for a conscript.
type StartRequest struct {
	ConscriptID string
	DirectiveID string
	CampAlias   string
	BranchName  string
	WorkingDir  string
	Prompt      string
}

// Engine runs coding sessions for conscripts. Start is asynchronous: the
// session runs on its own goroutine and reports through the event sink.
type Engine interface {
	Start(ctx context.Context, req StartRequest) error
	Stop(conscriptID string) error
	HandleHumanMessage(conscriptID, text string) error
}

const (
	// questionMarker prefixes a line where the session asks for human input.
	questionMarker = "QUESTION:"
	// completeMarker signals that the session considers the directive done.
	completeMarker = "WORK COMPLETE"

	defaultMaxTurns = 50
)

// session is one running conversation for a conscript.
type session struct {
	req    StartRequest
	cancel context.CancelFunc
	input  chan string
}

// ClaudeEngine implements Engine on top of the Anthropic API.
type ClaudeEngine struct {
	client   *Client
	sink     EventSink
	pending  *PendingInputs
	log      zerolog.Logger
	maxTurns int

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a ClaudeEngine.
type Option func(*ClaudeEngine)

// WithMaxTurns bounds the number of API round trips per session.
func WithMaxTurns(n int) Option {
	return func(e *ClaudeEngine) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// NewClaudeEngine creates an engine that reports to the given sink.
func NewClaudeEngine(client *Client, sink EventSink, pending *PendingInputs, log zerolog.Logger, opts ...Option) *ClaudeEngine {
	e := &ClaudeEngine{
		client:   client,
		sink:     sink,
		pending:  pending,
		log:      log.With().Str("component", "engine").Logger(),
		maxTurns: defaultMaxTurns,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches a session for a conscript. It fails if the conscript
// already has one running.
func (e *ClaudeEngine) Start(ctx context.Context, req StartRequest) error {
	e.mu.Lock()
	if _, ok := e.sessions[req.ConscriptID]; ok {
		e.mu.Unlock()
		return fmt.Errorf("conscript %s already has a running session", req.ConscriptID)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		req:    req,
		cancel: cancel,
		input:  make(chan string, 1),
	}
	e.sessions[req.ConscriptID] = s
	e.mu.Unlock()

	e.log.Info().
		Str("conscript", req.ConscriptID).
		Str("directive", req.DirectiveID).
		Str("branch", req.BranchName).
		Msg("session started")

	go e.run(ctx, s)
	return nil
}

// Stop cancels a conscript's session and drops any question it left open.
func (e *ClaudeEngine) Stop(conscriptID string) error {
	e.mu.Lock()
	s, ok := e.sessions[conscriptID]
	if ok {
		delete(e.sessions, conscriptID)
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("conscript %s has no running session", conscriptID)
	}
	s.cancel()
	e.pending.Clear(conscriptID)
	e.log.Info().Str("conscript", conscriptID).Msg("session stopped")
	return nil
}

// HandleHumanMessage answers a conscript's open question and resumes its
// session.
func (e *ClaudeEngine) HandleHumanMessage(conscriptID, text string) error {
	e.mu.Lock()
	s, ok := e.sessions[conscriptID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("conscript %s has no running session", conscriptID)
	}
	if _, err := e.pending.Answer(conscriptID); err != nil {
		return err
	}
	select {
	case s.input <- text:
		return nil
	default:
		return fmt.Errorf("conscript %s is not waiting for input", conscriptID)
	}
}

func (e *ClaudeEngine) finish(s *session) {
	e.mu.Lock()
	delete(e.sessions, s.req.ConscriptID)
	e.mu.Unlock()
}

// run drives the conversation until the session reports completion, fails,
// or is stopped.
func (e *ClaudeEngine) run(ctx context.Context, s *session) {
	defer e.finish(s)

	startIn, startOut := e.client.Tracker().Total()
	system := systemPrompt(s.req)
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(s.req.Prompt)),
	}

	e.emit(s, EventStatusChanged, "session working", startIn, startOut)

	for turn := 0; turn < e.maxTurns; turn++ {
		reply, err := e.client.Complete(ctx, system, messages)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.emit(s, EventFailed, err.Error(), startIn, startOut)
			return
		}
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(reply)))

		if question, ok := extractQuestion(reply); ok {
			answer, ok := e.awaitAnswer(ctx, s, question, startIn, startOut)
			if !ok {
				return
			}
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(answer)))
			continue
		}

		if strings.Contains(reply, completeMarker) {
			e.emit(s, EventWorkComplete, strings.TrimSpace(reply), startIn, startOut)
			return
		}

		e.emit(s, EventChatMessage, strings.TrimSpace(reply), startIn, startOut)
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(
			"Continue. Reply with a line containing \""+completeMarker+"\" when the directive is done.")))
	}

	e.emit(s, EventFailed, fmt.Sprintf("session exceeded %d turns", e.maxTurns), startIn, startOut)
}

// awaitAnswer parks the session on an open question until a human answers or
// the session is stopped.
func (e *ClaudeEngine) awaitAnswer(ctx context.Context, s *session, question string, startIn, startOut int64) (string, bool) {
	err := e.pending.Ask(PendingQuestion{
		ConscriptID: s.req.ConscriptID,
		DirectiveID: s.req.DirectiveID,
		Question:    question,
		AskedAt:     time.Now(),
	})
	if err != nil {
		// A question is already open for this conscript; the session has
		// to live with the one it asked first.
		e.log.Warn().Str("conscript", s.req.ConscriptID).Err(err).Msg("second question refused")
		return "Answer your previous question first; it is still pending.", true
	}

	e.emit(s, EventNeedsInput, question, startIn, startOut)

	select {
	case <-ctx.Done():
		return "", false
	case answer := <-s.input:
		e.emit(s, EventStatusChanged, "resumed after human answer", startIn, startOut)
		return answer, true
	}
}

func (e *ClaudeEngine) emit(s *session, typ EventType, msg string, startIn, startOut int64) {
	in, out := e.client.Tracker().Total()
	usedIn, usedOut := in-startIn, out-startOut
	e.sink.HandleEngineEvent(Event{
		Type:        typ,
		ConscriptID: s.req.ConscriptID,
		DirectiveID: s.req.DirectiveID,
		Message:     msg,
		TokensUsed:  usedIn + usedOut,
		Cost:        costFor(usedIn, usedOut),
		At:          time.Now(),
	})
}

// costFor estimates USD cost for a token delta.
func costFor(input, output int64) float64 {
	return float64(input)/1_000_000*inputPricePerMTok +
		float64(output)/1_000_000*outputPricePerMTok
}

// extractQuestion returns the question text when a reply contains a line
// starting with the question marker.
func extractQuestion(reply string) (string, bool) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, questionMarker) {
			return strings.TrimSpace(strings.TrimPrefix(line, questionMarker)), true
		}
	}
	return "", false
}

func systemPrompt(req StartRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an autonomous software developer working on one directive.\n")
	fmt.Fprintf(&sb, "Directive: %s\n", req.DirectiveID)
	fmt.Fprintf(&sb, "Working directory: %s\n", req.WorkingDir)
	fmt.Fprintf(&sb, "Branch: %s\n", req.BranchName)
	sb.WriteString("Ask for human input only when blocked, with a line starting with \"" + questionMarker + "\".\n")
	sb.WriteString("When the directive is fully implemented, reply with a line containing \"" + completeMarker + "\".\n")
	return sb.String()
}

// Verify ClaudeEngine implements Engine at compile time.
var _ Engine = (*ClaudeEngine)(nil)
