package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/arjunm/healthmate-web-ui/internal/api"
	"github.com/arjunm/healthmate-web-ui/internal/models"
	"github.com/go-chi/chi/v5"
)

type documentsPageData struct {
	UserName  string
	Documents []models.Document
	Alert     string
	Notice    string
}

const maxUploadMemory = 32 << 20

// HandleDocumentsPage renders the reference-document manager. A failed list
// read shows an inline alert in place of the table; the page stays
// interactive.
func (m *Main) HandleDocumentsPage(w http.ResponseWriter, r *http.Request) {
	user, ok := m.requireAdmin(w, r)
	if !ok {
		return
	}

	data := documentsPageData{
		UserName: user.Name,
		Notice:   r.URL.Query().Get("notice"),
	}

	docs, err := m.backend.Documents(r.Context())
	if err != nil {
		m.logger.Error("Failed to list documents", slog.String(errLoggerKey, err.Error()))
		data.Alert = userMessage(err, "Could not load documents")
	}
	data.Documents = docs

	m.renderPage(w, "documents.html", data)
}

// HandleUploadDocuments forwards the selected files to the backend for
// indexing and refreshes the list.
func (m *Main) HandleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireAdmin(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		m.logger.Error("Failed to parse upload form", slog.String(errLoggerKey, err.Error()))
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		http.Redirect(w, r, "/documents?notice="+url.QueryEscape("Select at least one file"), http.StatusSeeOther)
		return
	}

	uploads := make([]api.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			m.logger.Error("Failed to open upload",
				slog.String("filename", fh.Filename),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, "Invalid upload", http.StatusBadRequest)
			return
		}
		defer f.Close()
		uploads = append(uploads, api.Upload{Filename: fh.Filename, Content: f})
	}

	if _, err := m.backend.UploadDocuments(r.Context(), uploads); err != nil {
		m.logger.Error("Failed to upload documents", slog.String(errLoggerKey, err.Error()))
		http.Redirect(w, r, "/documents?notice="+url.QueryEscape(userMessage(err, "Failed to upload documents")), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}

// HandleDeleteDocument removes one indexed document and refreshes the list.
func (m *Main) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireAdmin(w, r); !ok {
		return
	}

	documentID := chi.URLParam(r, "documentID")
	if err := m.backend.DeleteDocument(r.Context(), documentID); err != nil {
		m.logger.Error("Failed to delete document",
			slog.String("documentID", documentID),
			slog.String(errLoggerKey, err.Error()))
		http.Redirect(w, r, "/documents?notice="+url.QueryEscape(userMessage(err, "Failed to delete document")), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}
