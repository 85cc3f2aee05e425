package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/arjunm/healthmate-web-ui/internal/models"
)

// TokenSource provides the bearer credential for authenticated requests.
// Token reports false when no valid credential is available, in which case
// the request is sent without an Authorization header and the backend
// rejects it.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the healthcare backend REST API. Request and response
// bodies are JSON except for document upload, which uses multipart form
// data. The backend is authoritative for all state the client renders.
type Client struct {
	baseURL string
	tokens  TokenSource

	client *http.Client
}

// NewClient creates a Client for the backend reachable at baseURL.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{},
	}
}

// Error is a backend failure. Message carries the server-provided text when
// the response body included one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
	Gender   string `json:"gender"`
}

// QuestionnaireStatus reports whether the health questionnaire has been
// submitted, with the stored answers when it has.
type QuestionnaireStatus struct {
	Success      bool                  `json:"success"`
	HasSubmitted bool                  `json:"hasSubmitted"`
	Data         *models.Questionnaire `json:"data"`
}

// Upload is one file to index on the backend.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Login authenticates with the backend. The returned token is not stored
// here; credential persistence belongs to the session store.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPost, "/users/register", req, &out)
	return out, err
}

// StartConversation opens a new consultation.
func (c *Client) StartConversation(ctx context.Context) (models.Conversation, error) {
	var out struct {
		Conversation models.Conversation `json:"conversation"`
	}
	err := c.do(ctx, http.MethodPost, "/chat/start", map[string]string{}, &out)
	return out.Conversation, err
}

// Conversations lists all of the user's consultations.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var out struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	err := c.do(ctx, http.MethodGet, "/chat", nil, &out)
	return out.Conversations, err
}

// Conversation fetches a single consultation by id.
func (c *Client) Conversation(ctx context.Context, id string) (models.Conversation, error) {
	var out struct {
		Conversation models.Conversation `json:"conversation"`
	}
	err := c.do(ctx, http.MethodGet, "/chat/"+id, nil, &out)
	return out.Conversation, err
}

// CheckActiveConversation reports whether an un-ended consultation exists.
// Only one may be active at a time.
func (c *Client) CheckActiveConversation(ctx context.Context) (bool, error) {
	var out struct {
		HasActive bool `json:"has_active"`
	}
	err := c.do(ctx, http.MethodGet, "/chat/check-active", nil, &out)
	return out.HasActive, err
}

// EndConversation closes a consultation.
func (c *Client) EndConversation(ctx context.Context, id string) (models.Conversation, error) {
	var out struct {
		Conversation models.Conversation `json:"conversation"`
	}
	err := c.do(ctx, http.MethodPost, "/chat/"+id+"/end", nil, &out)
	return out.Conversation, err
}

// SendMessage submits a user message and returns the full updated
// conversation, assistant reply included.
func (c *Client) SendMessage(ctx context.Context, id, content string) (models.Conversation, error) {
	var out struct {
		Conversation models.Conversation `json:"conversation"`
	}
	err := c.do(ctx, http.MethodPost, "/chat/"+id+"/message", map[string]string{
		"content": content,
	}, &out)
	return out.Conversation, err
}

// QuestionnaireStatus fetches the questionnaire gate state.
func (c *Client) QuestionnaireStatus(ctx context.Context) (QuestionnaireStatus, error) {
	var out QuestionnaireStatus
	err := c.do(ctx, http.MethodGet, "/users/questionnaire/status", nil, &out)
	return out, err
}

// SubmitQuestionnaire stores the health-intake answers.
func (c *Client) SubmitQuestionnaire(ctx context.Context, q models.Questionnaire) error {
	return c.do(ctx, http.MethodPost, "/users/questionnaire", q, nil)
}

// Documents lists the indexed reference documents.
func (c *Client) Documents(ctx context.Context) ([]models.Document, error) {
	var out struct {
		Documents []models.Document `json:"documents"`
	}
	err := c.do(ctx, http.MethodGet, "/documents", nil, &out)
	return out.Documents, err
}

// UploadDocuments sends files to the backend for indexing as a multipart
// form with one "documents" part per file.
func (c *Client) UploadDocuments(ctx context.Context, uploads []Upload) ([]models.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, up := range uploads {
		part, err := mw.CreateFormFile("documents", up.Filename)
		if err != nil {
			return nil, fmt.Errorf("error creating form file: %w", err)
		}
		if _, err := io.Copy(part, up.Content); err != nil {
			return nil, fmt.Errorf("error copying %s: %w", up.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/documents/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}

	var out struct {
		Documents []models.Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return out.Documents, nil
}

// DeleteDocument removes an indexed document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+id, nil, nil)
}

// AdminStats fetches the dashboard totals.
func (c *Client) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var out struct {
		Data models.AdminStats `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out)
	return out.Data, err
}

// AdminUsers lists all accounts.
func (c *Client) AdminUsers(ctx context.Context) ([]models.User, error) {
	var out struct {
		Data []models.User `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out)
	return out.Data, err
}

// AdminConversations lists all consultations across users.
func (c *Client) AdminConversations(ctx context.Context) ([]models.Conversation, error) {
	var out struct {
		Data []models.Conversation `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/admin/conversations", nil, &out)
	return out.Data, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// authorize attaches the bearer credential only while the session guard
// considers it valid; otherwise the request proceeds unauthenticated and the
// backend rejects it.
func (c *Client) authorize(req *http.Request) {
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}
	return e
}
