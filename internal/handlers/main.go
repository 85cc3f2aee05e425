package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	healthmateui "github.com/arjunm/healthmate-web-ui"
	"github.com/arjunm/healthmate-web-ui/internal/api"
	"github.com/arjunm/healthmate-web-ui/internal/chat"
	"github.com/arjunm/healthmate-web-ui/internal/models"
	"github.com/arjunm/healthmate-web-ui/internal/session"
	"github.com/tmaxmax/go-sse"
)

// Backend is the surface of the healthcare platform this client renders.
// Every operation is a round-trip to the external REST service; the client
// holds no business logic of its own.
type Backend interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (models.User, error)

	StartConversation(ctx context.Context) (models.Conversation, error)
	Conversations(ctx context.Context) ([]models.Conversation, error)
	Conversation(ctx context.Context, id string) (models.Conversation, error)
	CheckActiveConversation(ctx context.Context) (bool, error)
	EndConversation(ctx context.Context, id string) (models.Conversation, error)
	SendMessage(ctx context.Context, id, content string) (models.Conversation, error)

	QuestionnaireStatus(ctx context.Context) (api.QuestionnaireStatus, error)
	SubmitQuestionnaire(ctx context.Context, q models.Questionnaire) error

	Documents(ctx context.Context) ([]models.Document, error)
	UploadDocuments(ctx context.Context, uploads []api.Upload) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	AdminStats(ctx context.Context) (models.AdminStats, error)
	AdminUsers(ctx context.Context) ([]models.User, error)
	AdminConversations(ctx context.Context) ([]models.Conversation, error)
}

// Guard decides whether navigation targets are reachable for the current
// credential. See the session package for the decision semantics.
type Guard interface {
	CurrentUser() (session.Principal, bool)
	AuthorizeRoute(requiredRole string) session.Decision
}

// CredentialStore is the writable side of the session credential: written
// once at login, deleted at logout or invalidation.
type CredentialStore interface {
	Set(token string) error
	Clear() error
}

// Main handles the core functionality of the web client, managing
// server-sent events, HTML templates, and interactions between the backend
// API, the session guard, and the conversation reconciler.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template
	logger    *slog.Logger

	backend    Backend
	guard      Guard
	creds      CredentialStore
	reconciler *chat.Reconciler
}

const (
	loginPath = "/login"
	homePath  = "/"

	transcriptSSETopic    = "transcript"
	conversationsSSETopic = "conversations"

	errLoggerKey = "err"
)

// SSE event types for real-time updates.
var (
	transcriptSSEType = sse.Type("transcript")
	chatsSSEType      = sse.Type("chats")
	noticeSSEType     = sse.Type("notice")
)

// NewMain creates a new Main instance wired to the given backend, guard, and
// credential store. It parses the HTML templates from the embedded
// filesystem and configures the SSE server to subscribe every client to the
// transcript and conversation-list topics.
func NewMain(backend Backend, guard Guard, creds CredentialStore) (*Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		healthmateui.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, err
	}

	return &Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics: []string{
						sse.DefaultTopic,
						transcriptSSETopic,
						conversationsSSETopic,
					},
				}, true
			},
		},
		templates:  tmpl,
		logger:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
		backend:    backend,
		guard:      guard,
		creds:      creds,
		reconciler: chat.NewReconciler(),
	}, nil
}

// HandleSSE serves the event stream carrying transcript updates,
// conversation-list refreshes, and transient notices.
func (m *Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// Shutdown gracefully terminates the SSE server. It broadcasts a close
// message to all connected clients and waits up to 5 seconds for
// connections to terminate.
func (m *Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("close")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}

// requireUser gates a user-protected view. It redirects to the login page
// and reports false when no valid session exists.
func (m *Main) requireUser(w http.ResponseWriter, r *http.Request) (session.Principal, bool) {
	if m.guard.AuthorizeRoute("") != session.Allow {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return session.Principal{}, false
	}
	user, ok := m.guard.CurrentUser()
	if !ok {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return session.Principal{}, false
	}
	return user, true
}

// requireAdmin gates an admin-protected view. A valid non-admin session is
// sent home; a missing or expired session is sent to the login page.
func (m *Main) requireAdmin(w http.ResponseWriter, r *http.Request) (session.Principal, bool) {
	switch m.guard.AuthorizeRoute(session.RoleAdmin) {
	case session.Allow:
		user, ok := m.guard.CurrentUser()
		if ok {
			return user, true
		}
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	case session.RedirectHome:
		http.Redirect(w, r, homePath, http.StatusSeeOther)
	case session.RedirectLogin:
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
	return session.Principal{}, false
}

// userMessage extracts a transient-notification text from a backend error:
// the server-provided message when present, the fallback otherwise.
func userMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// publishNotice emits a transient notification to connected clients.
func (m *Main) publishNotice(text string) {
	msg := sse.Message{Type: noticeSSEType}
	msg.AppendData(text)
	if err := m.sseSrv.Publish(&msg); err != nil {
		m.logger.Error("Failed to publish notice", slog.String(errLoggerKey, err.Error()))
	}
}

// renderPage executes a full page template, logging and surfacing template
// failures as 500s.
func (m *Main) renderPage(w http.ResponseWriter, name string, data any) {
	if err := m.templates.ExecuteTemplate(w, name, data); err != nil {
		m.logger.Error("Failed to execute template",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderToString executes a partial template into a string for SSE payloads.
func (m *Main) renderToString(name string, data any) (string, error) {
	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
