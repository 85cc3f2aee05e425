package handlers

import (
	"io/fs"
	"net/http"

	healthmateui "github.com/arjunm/healthmate-web-ui"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes wires all HTTP endpoints, including the embedded static assets.
func (m *Main) Routes() (http.Handler, error) {
	staticFS, err := fs.Sub(healthmateui.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/login", m.HandleLoginPage)
	r.Post("/login", m.HandleLogin)
	r.Get("/register", m.HandleRegisterPage)
	r.Post("/register", m.HandleRegister)
	r.Post("/logout", m.HandleLogout)

	r.Get("/", m.HandleChatPage)
	r.Get("/chat/{conversationID}", m.HandleChatPage)
	r.Post("/chat/start", m.HandleStartConversation)
	r.Post("/chat/{conversationID}/end", m.HandleEndConversation)
	r.Post("/chat/{conversationID}/message", m.HandleSendMessage)
	r.Post("/questionnaire", m.HandleSubmitQuestionnaire)

	r.Get("/documents", m.HandleDocumentsPage)
	r.Post("/documents/upload", m.HandleUploadDocuments)
	r.Post("/documents/{documentID}/delete", m.HandleDeleteDocument)

	r.Get("/admin", m.HandleAdminPage)

	r.Get("/sse", m.HandleSSE)

	return r, nil
}
