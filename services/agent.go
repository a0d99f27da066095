package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
)

// DefaultTopK is how many chunks a turn retrieves for context.
const DefaultTopK = 5

// Selected page text is clipped to this many characters before it is folded
// into the retrieval query.
const selectedTextQueryLimit = 500

const auditTimeout = 5 * time.Second

// ProfileReader looks up a student's background for prompt personalization.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// ChatLogger records one completed interaction to the durable audit store.
type ChatLogger interface {
	LogInteraction(ctx context.Context, userMessage, aiResponse string, sources []models.SearchResult) error
}

// ChatTurn is everything one chat request carries into the orchestration,
// already validated at the API boundary.
type ChatTurn struct {
	Message      string
	History      []models.HistoryTurn
	SelectedText string
	Context      models.RequestContext
}

// Agent orchestrates one chat turn: embed, search, build prompt, stream the
// model, and audit the completed interaction.
type Agent struct {
	embedder  Embedder
	store     VectorStore
	generator Generator
	profiles  ProfileReader
	audit     ChatLogger
	log       *logrus.Logger
	topK      int
}

// NewAgent wires the orchestration. profiles and audit may be nil-free fakes
// in tests; none of the dependencies are reached for before ChatStream runs.
func NewAgent(embedder Embedder, store VectorStore, generator Generator,
	profiles ProfileReader, audit ChatLogger, log *logrus.Logger) *Agent {
	return &Agent{
		embedder:  embedder,
		store:     store,
		generator: generator,
		profiles:  profiles,
		audit:     audit,
		log:       log,
		topK:      DefaultTopK,
	}
}

// ChatStream runs one turn and yields typed events over the returned channel.
// The channel is closed after the Done event. If the caller's context is
// canceled mid-stream, production stops and the partial audit write is
// best-effort.
func (a *Agent) ChatStream(ctx context.Context, turn ChatTurn) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		chunks := a.retrieve(ctx, turn)
		profile := a.lookupProfile(ctx, turn.Context.UserID)
		spec := BuildPrompt(turn.Message, turn.History, chunks, profile, turn.SelectedText, turn.Context.CurrentPage)

		var full strings.Builder
		if len(chunks) == 0 {
			if !a.send(ctx, events, models.StreamEvent{Type: models.EventTokenDelta, Text: NoContextDisclaimer}) {
				a.logInteraction(ctx, turn, full.String(), chunks)
				return
			}
			full.WriteString(NoContextDisclaimer)
		}

		for text, err := range a.generator.Stream(ctx, spec) {
			if err != nil {
				a.log.WithError(err).Warn("model stream interrupted")
				full.WriteString(GenerationErrorNote)
				a.send(ctx, events, models.StreamEvent{Type: models.EventErrorNote, Text: GenerationErrorNote})
				break
			}
			if !a.send(ctx, events, models.StreamEvent{Type: models.EventTokenDelta, Text: text}) {
				a.logInteraction(ctx, turn, full.String(), chunks)
				return
			}
			full.WriteString(text)
		}

		a.send(ctx, events, models.StreamEvent{Type: models.EventDone})
		a.logInteraction(ctx, turn, full.String(), chunks)
	}()

	return events
}

// retrieve embeds the query and searches the store. Any failure degrades to
// the no-context path instead of failing the turn.
func (a *Agent) retrieve(ctx context.Context, turn ChatTurn) []models.SearchResult {
	query := turn.Message
	if turn.SelectedText != "" {
		query = query + " " + truncateRunes(turn.SelectedText, selectedTextQueryLimit)
	}

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		a.log.WithError(err).Warn("query embedding failed, answering without context")
		return nil
	}

	chunks, err := a.store.Search(ctx, embedding, a.topK)
	if err != nil {
		a.log.WithError(err).Warn("vector search failed, answering without context")
		return nil
	}
	return chunks
}

// lookupProfile is best-effort: a missing user or a failed lookup never
// affects the turn.
func (a *Agent) lookupProfile(ctx context.Context, userID string) *models.UserProfile {
	if userID == "" {
		return nil
	}
	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		a.log.WithError(err).WithField("user_id", userID).Warn("profile lookup failed")
		return nil
	}
	return profile
}

// logInteraction writes the audit row. It survives caller cancellation so a
// client disconnect still gets a best-effort partial record.
func (a *Agent) logInteraction(ctx context.Context, turn ChatTurn, response string, sources []models.SearchResult) {
	if response == "" {
		return
	}
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := a.audit.LogInteraction(auditCtx, turn.Message, response, sources); err != nil {
		a.log.WithError(err).Warn("failed to log chat interaction")
	}
}

func (a *Agent) send(ctx context.Context, events chan<- models.StreamEvent, event models.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// truncateRunes clips s to at most max bytes without splitting a UTF-8 rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
