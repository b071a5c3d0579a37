package assembler

import (
	"context"
	"strings"

	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/logging"
)

const (
	// DefaultMaxMemories caps recalled memories per payload.
	DefaultMaxMemories = 5

	// DefaultMaxMessages caps session history entries per payload.
	DefaultMaxMessages = 20

	summaryHeader   = "Relevant memories:"
	summaryFallback = "No relevant memories."
)

// Recaller is the slice of the engine the assembler consumes. Context
// assembly uses plain Recall only; hybrid retrieval is not part of the
// default context policy.
type Recaller interface {
	Recall(ctx context.Context, q core.RecallQuery) ([]core.Memory, error)
}

// ContextQuery describes one getContext call. MaxMemories and MaxMessages
// fall back to the package defaults when <= 0. SessionID is optional; when
// empty no message history is fetched.
type ContextQuery struct {
	Text        string
	UserID      string
	SessionID   string
	MaxMemories int
	MaxMessages int
}

// ContextPayload is the assembled prompt context: ranked memories, the
// session's recent messages oldest-first, and a rendered text summary. It is
// constructed fresh per call and never cached.
type ContextPayload struct {
	Memories       []core.Memory  `json:"memories"`
	RecentMessages []core.Message `json:"recent_messages"`
	Summary        string         `json:"summary"`
}

// Assembler builds ContextPayloads from a recall engine and a message store.
type Assembler struct {
	recaller Recaller
	messages core.MessageStore
	logger   logging.Logger
}

// Options configure an Assembler.
type Options struct {
	Logger logging.Logger
}

// New creates an Assembler. messages may be nil, in which case payloads
// never carry session history.
func New(recaller Recaller, messages core.MessageStore, optFns ...func(o *Options)) *Assembler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Assembler{recaller: recaller, messages: messages, logger: opts.Logger}
}

// GetContext recalls memories for the query, fetches the session's recent
// messages when a session is given, and renders the summary. Collaborator
// failures propagate; an empty store legitimately yields a payload with the
// fallback summary.
func (a *Assembler) GetContext(ctx context.Context, q ContextQuery) (ContextPayload, error) {
	maxMemories := q.MaxMemories
	if maxMemories <= 0 {
		maxMemories = DefaultMaxMemories
	}
	maxMessages := q.MaxMessages
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}

	mems, err := a.recaller.Recall(ctx, core.RecallQuery{
		Text:   q.Text,
		UserID: q.UserID,
		Limit:  maxMemories,
	})
	if err != nil {
		return ContextPayload{}, err
	}

	msgs := []core.Message{}
	if q.SessionID != "" && a.messages != nil {
		msgs, err = a.messages.RecentMessages(ctx, q.SessionID, maxMessages)
		if err != nil {
			return ContextPayload{}, core.NewRetrievalError("recent messages", err)
		}
	}

	payload := ContextPayload{
		Memories:       mems,
		RecentMessages: msgs,
		Summary:        renderSummary(mems),
	}
	a.logger.Debug("context assembled memories=%d messages=%d session_id=%s",
		len(mems), len(msgs), q.SessionID)
	return payload, nil
}

// renderSummary renders the fixed summary template: a header line followed
// by one bulleted line per memory in recall order, or the fallback literal
// when nothing was recalled. Memory content is never truncated here; any
// length budget is the caller's concern.
func renderSummary(mems []core.Memory) string {
	if len(mems) == 0 {
		return summaryFallback
	}
	var b strings.Builder
	b.WriteString(summaryHeader)
	for _, mem := range mems {
		b.WriteString("\n- ")
		b.WriteString(mem.Content)
	}
	return b.String()
}
