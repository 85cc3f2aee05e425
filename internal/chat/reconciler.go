package chat

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arjunm/healthmate-web-ui/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNoActiveConversation is returned by Send when no conversation is
	// loaded into the view.
	ErrNoActiveConversation = errors.New("no active conversation")
	// ErrEmptyInput is returned by Send when the message trims to nothing.
	ErrEmptyInput = errors.New("message is empty")
	// ErrSendInFlight is returned by Send while a previous send is still
	// awaiting its server result.
	ErrSendInFlight = errors.New("a send is already in flight")
)

// Pending identifies one in-flight send. The conversation id and sequence
// number tie the eventual server result back to the view state the send was
// issued from; a result that arrives after the view was re-derived, whether
// by switching conversations or reloading the current one, no longer
// matches and is discarded instead of overwriting the fresh transcript.
type Pending struct {
	ConversationID string
	Seq            uint64
	Text           string
}

// Reconciler owns the transcript displayed for the active conversation. It
// keeps the view consistent with server truth while hiding round-trip
// latency: the transcript is always either the last confirmed server state,
// or that state plus exactly one trailing speculative user message.
type Reconciler struct {
	mu             sync.Mutex
	conversationID string
	ended          bool
	transcript     []models.Message
	seq            uint64
	inflight       bool
}

// NewReconciler creates an empty reconciler with no active conversation.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Visible filters a server message list down to the displayable roles,
// preserving relative order. Hidden system messages are dropped.
func Visible(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// SetConversation replaces the view state with the given server
// conversation. This is a pure re-derivation: it fully replaces, never
// merges with, the prior transcript. A nil conversation empties the view.
// Every re-derivation abandons a pending send, reloads of the same
// conversation included; once server truth replaces the speculative view
// there is nothing left to confirm or revert, and the pending's eventual
// Confirm or Fail reports applied=false.
func (r *Reconciler) SetConversation(conv *models.Conversation) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv == nil {
		r.conversationID = ""
		r.ended = false
		r.transcript = nil
		r.inflight = false
		return nil
	}

	r.inflight = false
	r.conversationID = conv.ID
	r.ended = conv.Ended
	r.transcript = Visible(conv.Messages)
	return r.snapshot()
}

// ConversationID returns the id of the conversation the view is bound to,
// or an empty string when none is loaded.
func (r *Reconciler) ConversationID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversationID
}

// Transcript returns a copy of the currently displayed messages.
func (r *Reconciler) Transcript() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// SendInFlight reports whether a send is awaiting its server result. The
// send control stays disabled while this is true, which keeps reconciliation
// down to at most one unconfirmed tail element.
func (r *Reconciler) SendInFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// Send appends a speculative user message with a locally generated id and
// returns the handle for the in-flight server call along with the optimistic
// transcript. The append is synchronous; the caller renders it before the
// round-trip resolves.
func (r *Reconciler) Send(text string) (Pending, []models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversationID == "" {
		return Pending{}, r.snapshot(), ErrNoActiveConversation
	}
	if strings.TrimSpace(text) == "" {
		return Pending{}, r.snapshot(), ErrEmptyInput
	}
	if r.inflight {
		return Pending{}, r.snapshot(), ErrSendInFlight
	}

	r.seq++
	r.transcript = append(r.transcript, models.Message{
		ID:        "local-" + uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	r.inflight = true

	return Pending{
		ConversationID: r.conversationID,
		Seq:            r.seq,
		Text:           text,
	}, r.snapshot(), nil
}

// Confirm applies a successful server response: the working transcript is
// fully replaced by the filtered server transcript, real ids and timestamps
// included. It reports false, leaving the view untouched, when the pending
// send no longer corresponds to the active conversation.
func (r *Reconciler) Confirm(p Pending, conv models.Conversation) ([]models.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.matches(p) || conv.ID != p.ConversationID {
		return r.snapshot(), false
	}

	r.ended = conv.Ended
	r.transcript = Visible(conv.Messages)
	r.inflight = false
	return r.snapshot(), true
}

// Fail reverts the speculative append after a failed send: the newest user
// entry matching the attempted text is removed from the tail-ward side,
// yielding the transcript as if the send had never happened. Earlier
// identical user messages are preserved. It reports false when the pending
// send no longer corresponds to the active conversation.
func (r *Reconciler) Fail(p Pending) ([]models.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.matches(p) {
		return r.snapshot(), false
	}

	for i := len(r.transcript) - 1; i >= 0; i-- {
		m := r.transcript[i]
		if m.Role == models.RoleUser && m.Content == p.Text {
			r.transcript = append(r.transcript[:i], r.transcript[i+1:]...)
			break
		}
	}
	r.inflight = false
	return r.snapshot(), true
}

func (r *Reconciler) matches(p Pending) bool {
	return r.inflight && p.ConversationID == r.conversationID && p.Seq == r.seq
}

func (r *Reconciler) snapshot() []models.Message {
	out := make([]models.Message, len(r.transcript))
	copy(out, r.transcript)
	return out
}
