package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arjunm/healthmate-web-ui/internal/api"
	"github.com/arjunm/healthmate-web-ui/internal/models"
)

type staticTokens struct {
	token string
	ok    bool
}

func (s staticTokens) Token() (string, bool) { return s.token, s.ok }

func TestAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name   string
		tokens staticTokens
		want   string
	}{
		{
			name:   "Valid credential attached",
			tokens: staticTokens{token: "tok123", ok: true},
			want:   "Bearer tok123",
		},
		{
			name:   "Invalid credential omitted",
			tokens: staticTokens{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				json.NewEncoder(w).Encode(map[string]any{"conversations": []any{}})
			}))
			defer srv.Close()

			client := api.NewClient(srv.URL, tt.tokens)
			if _, err := client.Conversations(context.Background()); err != nil {
				t.Fatalf("Conversations() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorization header = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/login" {
			t.Errorf("request = %s %s, want POST /users/login", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["email"] != "pat@example.com" || body["password"] != "secret" {
			t.Errorf("body = %v, want email and password fields", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Login successful",
			"token":   "jwt-token",
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{})
	resp, err := client.Login(context.Background(), "pat@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !resp.Success || resp.Token != "jwt-token" {
		t.Errorf("Login() = %+v, want success with token", resp)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/c1/message" {
			t.Errorf("request = %s %s, want POST /chat/c1/message", r.Method, r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["content"] != "I have a headache" {
			t.Errorf("content = %q, want the sent message", body["content"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"conversation": models.Conversation{
				ID: "c1",
				Messages: []models.Message{
					{ID: "m1", Role: models.RoleUser, Content: "I have a headache"},
					{ID: "m2", Role: models.RoleAssistant, Content: "How long has it lasted?"},
				},
			},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{token: "tok", ok: true})
	conv, err := client.SendMessage(context.Background(), "c1", "I have a headache")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if conv.ID != "c1" || len(conv.Messages) != 2 {
		t.Errorf("SendMessage() = %+v, want updated conversation with both messages", conv)
	}
}

func TestCheckActiveConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/check-active" {
			t.Errorf("path = %q, want /chat/check-active", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"has_active": true})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{token: "tok", ok: true})
	hasActive, err := client.CheckActiveConversation(context.Background())
	if err != nil {
		t.Fatalf("CheckActiveConversation() error = %v", err)
	}
	if !hasActive {
		t.Error("CheckActiveConversation() = false, want true")
	}
}

func TestBackendError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "Message field",
			status:      http.StatusUnauthorized,
			body:        `{"message":"Invalid credentials"}`,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "Error field",
			status:      http.StatusBadRequest,
			body:        `{"error":"email already registered"}`,
			wantMessage: "email already registered",
		},
		{
			name:        "No body",
			status:      http.StatusInternalServerError,
			body:        "",
			wantMessage: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := api.NewClient(srv.URL, staticTokens{})
			_, err := client.Login(context.Background(), "pat@example.com", "wrong")
			if err == nil {
				t.Fatal("Login() error = nil, want backend error")
			}

			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *api.Error", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestUploadDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents/upload" {
			t.Errorf("request = %s %s, want POST /documents/upload", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}

		files := r.MultipartForm.File["documents"]
		if len(files) != 2 {
			t.Fatalf("got %d files under %q, want 2", len(files), "documents")
		}
		if files[0].Filename != "guidelines.pdf" || files[1].Filename != "dosage.txt" {
			t.Errorf("filenames = %q, %q", files[0].Filename, files[1].Filename)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"documents": []models.Document{
				{ID: "d1", Filename: "guidelines.pdf", ChunkCount: 12},
				{ID: "d2", Filename: "dosage.txt", ChunkCount: 3},
			},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{token: "tok", ok: true})
	docs, err := client.UploadDocuments(context.Background(), []api.Upload{
		{Filename: "guidelines.pdf", Content: strings.NewReader("pdf bytes")},
		{Filename: "dosage.txt", Content: strings.NewReader("text bytes")},
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "d1" {
		t.Errorf("UploadDocuments() = %+v, want both indexed documents", docs)
	}
}

func TestDeleteDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/documents/d1" {
			t.Errorf("request = %s %s, want DELETE /documents/d1", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{token: "tok", ok: true})
	if err := client.DeleteDocument(context.Background(), "d1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
}

func TestAdminStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/stats" {
			t.Errorf("path = %q, want /admin/stats", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": models.AdminStats{TotalUsers: 4, TotalConversations: 9, TotalDocuments: 2},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, staticTokens{token: "tok", ok: true})
	stats, err := client.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if stats.TotalUsers != 4 || stats.TotalConversations != 9 || stats.TotalDocuments != 2 {
		t.Errorf("AdminStats() = %+v, want unwrapped data payload", stats)
	}
}
