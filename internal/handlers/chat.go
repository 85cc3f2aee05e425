package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/arjunm/healthmate-web-ui/internal/chat"
	"github.com/arjunm/healthmate-web-ui/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/tmaxmax/go-sse"
)

type conversationItem struct {
	ID     string
	Title  string
	Active bool
}

type messageView struct {
	ID        string
	Role      string
	Content   template.HTML
	Timestamp string
}

type chatPageData struct {
	UserName string
	IsAdmin  bool

	CurrentChatID string
	Messages      []messageView
	ActiveChat    bool

	ActiveConversations []conversationItem
	History             []conversationItem
	SearchQuery         string
	HasActive           bool

	GateLocked bool
	GateError  string

	Alert  string
	Notice string
}

// HandleChatPage renders the consultation view for "/" and
// "/chat/{conversationID}". The sidebar lists active consultations and
// ended history, filtered by the optional "q" search parameter; the
// questionnaire gate locks the view until the health intake has been
// submitted.
func (m *Main) HandleChatPage(w http.ResponseWriter, r *http.Request) {
	user, ok := m.requireUser(w, r)
	if !ok {
		return
	}

	data := chatPageData{
		UserName:    user.Name,
		IsAdmin:     user.Role == "admin",
		SearchQuery: r.URL.Query().Get("q"),
		Notice:      r.URL.Query().Get("notice"),
	}

	// The gate locks only on an authoritative "not submitted" answer; a
	// failed status read surfaces as an alert instead of blocking the view.
	status, err := m.backend.QuestionnaireStatus(r.Context())
	if err != nil {
		m.logger.Error("Failed to fetch questionnaire status", slog.String(errLoggerKey, err.Error()))
		data.Alert = userMessage(err, "Could not load questionnaire status")
	} else if !status.HasSubmitted {
		data.GateLocked = true
	}

	conversations, err := m.backend.Conversations(r.Context())
	if err != nil {
		m.logger.Error("Failed to list conversations", slog.String(errLoggerKey, err.Error()))
		data.Alert = userMessage(err, "Could not load conversations")
	}

	conversationID := chi.URLParam(r, "conversationID")
	for _, conv := range conversations {
		if data.SearchQuery != "" &&
			!strings.Contains(strings.ToLower(conv.Title), strings.ToLower(data.SearchQuery)) {
			continue
		}
		item := conversationItem{
			ID:     conv.ID,
			Title:  conv.Title,
			Active: conv.ID == conversationID,
		}
		if conv.Ended {
			data.History = append(data.History, item)
		} else {
			data.ActiveConversations = append(data.ActiveConversations, item)
		}
	}

	hasActive, err := m.backend.CheckActiveConversation(r.Context())
	if err != nil {
		m.logger.Error("Failed to check active conversation", slog.String(errLoggerKey, err.Error()))
	}
	data.HasActive = hasActive

	if conversationID == "" {
		m.reconciler.SetConversation(nil)
		m.renderPage(w, "chat.html", data)
		return
	}

	conv, err := m.backend.Conversation(r.Context(), conversationID)
	if err != nil {
		m.logger.Error("Failed to fetch conversation",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
		data.Alert = userMessage(err, "Could not load this conversation")
		m.renderPage(w, "chat.html", data)
		return
	}

	transcript := m.reconciler.SetConversation(&conv)
	data.CurrentChatID = conv.ID
	data.ActiveChat = !conv.Ended
	data.Messages = messageViews(transcript)

	m.renderPage(w, "chat.html", data)
}

// HandleStartConversation opens a new consultation and navigates to it.
// Only one consultation may be active at a time; the backend enforces this
// and the button is disabled client-side while one is active.
func (m *Main) HandleStartConversation(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireUser(w, r); !ok {
		return
	}

	conv, err := m.backend.StartConversation(r.Context())
	if err != nil {
		m.logger.Error("Failed to start conversation", slog.String(errLoggerKey, err.Error()))
		http.Redirect(w, r, homePath+"?notice="+url.QueryEscape(userMessage(err, "Failed to start consultation")), http.StatusSeeOther)
		return
	}

	m.publishChatList(conv.ID)
	http.Redirect(w, r, "/chat/"+conv.ID, http.StatusSeeOther)
}

// HandleEndConversation closes the consultation and navigates home.
func (m *Main) HandleEndConversation(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireUser(w, r); !ok {
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if _, err := m.backend.EndConversation(r.Context(), conversationID); err != nil {
		m.logger.Error("Failed to end conversation",
			slog.String("conversationID", conversationID),
			slog.String(errLoggerKey, err.Error()))
		http.Redirect(w, r, "/chat/"+conversationID+"?notice="+url.QueryEscape(userMessage(err, "Failed to end consultation")), http.StatusSeeOther)
		return
	}

	m.publishChatList("")
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// HandleSendMessage applies the optimistic send flow: the speculative user
// message is rendered synchronously in the response, and the server
// round-trip resolves in the background, publishing either the reconciled
// transcript or the reverted one plus an error notice over SSE.
func (m *Main) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireUser(w, r); !ok {
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	text := r.FormValue("message")

	// A stale reconciler (direct POST without a prior page view) is rebound
	// to the requested conversation before the speculative append.
	if m.reconciler.ConversationID() != conversationID {
		conv, err := m.backend.Conversation(r.Context(), conversationID)
		if err != nil {
			m.logger.Error("Failed to fetch conversation before send",
				slog.String("conversationID", conversationID),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, userMessage(err, "Could not load this conversation"), http.StatusBadGateway)
			return
		}
		m.reconciler.SetConversation(&conv)
	}

	pending, optimistic, err := m.reconciler.Send(text)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	case errors.Is(err, chat.ErrNoActiveConversation):
		http.Error(w, "No active conversation", http.StatusBadRequest)
		return
	case errors.Is(err, chat.ErrSendInFlight):
		http.Error(w, "A message is already being sent", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	go m.completeSend(pending)

	// The optimistic tail is the user's own message; render just that bubble
	// so the page can append it without waiting for the round-trip.
	last := optimistic[len(optimistic)-1]
	if err := m.templates.ExecuteTemplate(w, "user_message", messageView{
		ID:        last.ID,
		Role:      last.Role,
		Content:   template.HTML(template.HTMLEscapeString(last.Content)),
		Timestamp: last.CreatedAt,
	}); err != nil {
		m.logger.Error("Failed to render user message", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// completeSend resolves one in-flight send. Confirm and Fail both report
// whether they applied; a send whose conversation was switched away is
// discarded without touching the new transcript.
func (m *Main) completeSend(p chat.Pending) {
	conv, err := m.backend.SendMessage(context.Background(), p.ConversationID, p.Text)
	if err != nil {
		m.logger.Error("Failed to send message",
			slog.String("conversationID", p.ConversationID),
			slog.String(errLoggerKey, err.Error()))

		transcript, applied := m.reconciler.Fail(p)
		if !applied {
			m.logger.Debug("Discarding stale send failure",
				slog.String("conversationID", p.ConversationID))
			return
		}
		m.publishTranscript(p.ConversationID, transcript)
		m.publishNotice(userMessage(err, "Failed to send message"))
		return
	}

	transcript, applied := m.reconciler.Confirm(p, conv)
	if !applied {
		m.logger.Debug("Discarding stale send result",
			slog.String("conversationID", p.ConversationID))
		return
	}
	m.publishTranscript(p.ConversationID, transcript)
}

// publishTranscript pushes the full reconciled transcript to the chat view.
func (m *Main) publishTranscript(conversationID string, transcript []models.Message) {
	payload, err := m.renderToString("chat_messages", struct {
		CurrentChatID string
		Messages      []messageView
	}{
		CurrentChatID: conversationID,
		Messages:      messageViews(transcript),
	})
	if err != nil {
		m.logger.Error("Failed to render transcript", slog.String(errLoggerKey, err.Error()))
		return
	}

	msg := sse.Message{Type: transcriptSSEType}
	msg.AppendData(payload)
	if err := m.sseSrv.Publish(&msg, transcriptSSETopic); err != nil {
		m.logger.Error("Failed to publish transcript", slog.String(errLoggerKey, err.Error()))
	}
}

// publishChatList pushes refreshed sidebar items to connected clients.
func (m *Main) publishChatList(activeID string) {
	conversations, err := m.backend.Conversations(context.Background())
	if err != nil {
		m.logger.Error("Failed to list conversations", slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	for _, conv := range conversations {
		if conv.Ended {
			continue
		}
		if err := m.templates.ExecuteTemplate(&sb, "chat_title", conversationItem{
			ID:     conv.ID,
			Title:  conv.Title,
			Active: conv.ID == activeID,
		}); err != nil {
			m.logger.Error("Failed to render chat title", slog.String(errLoggerKey, err.Error()))
			return
		}
	}

	msg := sse.Message{Type: chatsSSEType}
	msg.AppendData(sb.String())
	if err := m.sseSrv.Publish(&msg, conversationsSSETopic); err != nil {
		m.logger.Error("Failed to publish chats", slog.String(errLoggerKey, err.Error()))
	}
}

func messageViews(messages []models.Message) []messageView {
	views := make([]messageView, len(messages))
	for i, msg := range messages {
		content := template.HTML(template.HTMLEscapeString(msg.Content))
		if msg.Role == models.RoleAssistant {
			content = models.RenderMarkdown(msg.Content)
		}
		views[i] = messageView{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   content,
			Timestamp: msg.CreatedAt,
		}
	}
	return views
}
