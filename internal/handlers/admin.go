package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/arjunm/healthmate-web-ui/internal/models"
)

type adminPageData struct {
	UserName string

	Stats      models.AdminStats
	StatsAlert string

	Users        []models.User
	UsersAlert   string
	UserSearch   string
	RoleFilter   string
	StatusFilter string

	Conversations      []models.Conversation
	ConversationsAlert string
}

// HandleAdminPage renders the dashboard: stat cards plus user and
// conversation tables. The user table filters by name/email search and by
// role and status. Each section fetches independently so one failed read
// degrades to an inline alert without emptying the rest of the page.
func (m *Main) HandleAdminPage(w http.ResponseWriter, r *http.Request) {
	user, ok := m.requireAdmin(w, r)
	if !ok {
		return
	}

	data := adminPageData{
		UserName:     user.Name,
		UserSearch:   r.URL.Query().Get("q"),
		RoleFilter:   r.URL.Query().Get("role"),
		StatusFilter: r.URL.Query().Get("status"),
	}
	if data.RoleFilter == "" {
		data.RoleFilter = "all"
	}
	if data.StatusFilter == "" {
		data.StatusFilter = "all"
	}

	stats, err := m.backend.AdminStats(r.Context())
	if err != nil {
		m.logger.Error("Failed to fetch admin stats", slog.String(errLoggerKey, err.Error()))
		data.StatsAlert = userMessage(err, "Could not load statistics")
	}
	data.Stats = stats

	users, err := m.backend.AdminUsers(r.Context())
	if err != nil {
		m.logger.Error("Failed to fetch users", slog.String(errLoggerKey, err.Error()))
		data.UsersAlert = userMessage(err, "Could not load users")
	}
	data.Users = filterUsers(users, data.UserSearch, data.RoleFilter, data.StatusFilter)

	conversations, err := m.backend.AdminConversations(r.Context())
	if err != nil {
		m.logger.Error("Failed to fetch conversations", slog.String(errLoggerKey, err.Error()))
		data.ConversationsAlert = userMessage(err, "Could not load conversations")
	}
	data.Conversations = conversations

	m.renderPage(w, "admin.html", data)
}

// filterUsers narrows the user table: search matches name or email, role and
// status must equal the filter value unless it is "all". Comparisons are
// case-insensitive.
func filterUsers(users []models.User, search, role, status string) []models.User {
	search = strings.ToLower(search)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if role != "all" && strings.ToLower(u.Role) != role {
			continue
		}
		if status != "all" && strings.ToLower(u.Status) != status {
			continue
		}
		out = append(out, u)
	}
	return out
}
