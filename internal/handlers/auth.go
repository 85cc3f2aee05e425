package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/arjunm/healthmate-web-ui/internal/api"
)

type authPageData struct {
	Email    string
	Name     string
	DOB      string
	Gender   string
	Errors   map[string]string
	Notice   string
	Register bool
}

// HandleLoginPage renders the sign-in form. A session that is already valid
// skips straight to the chat view.
func (m *Main) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.guard.CurrentUser(); ok {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}
	m.renderPage(w, "login.html", authPageData{
		Notice: r.URL.Query().Get("notice"),
	})
}

// HandleLogin validates the credentials form and authenticates against the
// backend. Field problems are shown inline without any network call; on
// success the token is stored and the user lands on the chat view.
func (m *Main) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	fieldErrs := map[string]string{}
	if email == "" {
		fieldErrs["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fieldErrs["email"] = "Enter a valid email address"
	}
	if password == "" {
		fieldErrs["password"] = "Password is required"
	}
	if len(fieldErrs) > 0 {
		m.renderPage(w, "login.html", authPageData{Email: email, Errors: fieldErrs})
		return
	}

	resp, err := m.backend.Login(r.Context(), email, password)
	if err != nil {
		m.logger.Error("Login failed", slog.String(errLoggerKey, err.Error()))
		m.renderPage(w, "login.html", authPageData{
			Email:  email,
			Notice: userMessage(err, "Login failed"),
		})
		return
	}

	if resp.Token == "" {
		m.renderPage(w, "login.html", authPageData{
			Email:  email,
			Notice: "Login failed",
		})
		return
	}

	if err := m.creds.Set(resp.Token); err != nil {
		m.logger.Error("Failed to store credential", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// HandleRegisterPage renders the account creation form.
func (m *Main) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	m.renderPage(w, "register.html", authPageData{Register: true})
}

// HandleRegister validates the registration form and creates the account.
// All field checks run before any network call; success navigates to the
// login page.
func (m *Main) HandleRegister(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	dob := strings.TrimSpace(r.FormValue("dob"))
	gender := r.FormValue("gender")
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	data := authPageData{
		Name:     name,
		Email:    email,
		DOB:      dob,
		Gender:   gender,
		Register: true,
		Errors:   map[string]string{},
	}

	if name == "" {
		data.Errors["name"] = "Full name is required"
	}
	if email == "" {
		data.Errors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		data.Errors["email"] = "Enter a valid email address"
	}
	if dob == "" {
		data.Errors["dob"] = "Date of birth is required"
	} else if parsed, err := time.Parse("2006-01-02", dob); err != nil || parsed.After(time.Now()) {
		data.Errors["dob"] = "Enter a valid date of birth"
	}
	if gender != "male" && gender != "female" {
		data.Errors["gender"] = "Please select a gender"
	}
	if msg := passwordProblem(password); msg != "" {
		data.Errors["password"] = msg
	}
	if confirm != password {
		data.Errors["confirm_password"] = "Passwords must match"
	}
	if len(data.Errors) > 0 {
		m.renderPage(w, "register.html", data)
		return
	}

	_, err := m.backend.Register(r.Context(), api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		DOB:      dob,
		Gender:   gender,
	})
	if err != nil {
		m.logger.Error("Registration failed", slog.String(errLoggerKey, err.Error()))
		data.Notice = userMessage(err, "Registration failed")
		m.renderPage(w, "register.html", data)
		return
	}

	http.Redirect(w, r, loginPath+"?notice=Account+created,+please+sign+in", http.StatusSeeOther)
}

// HandleLogout clears the stored credential and returns to the login page.
func (m *Main) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := m.creds.Clear(); err != nil {
		m.logger.Error("Failed to clear credential", slog.String(errLoggerKey, err.Error()))
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func passwordProblem(password string) string {
	if len(password) < 8 {
		return "Password must be at least 8 characters"
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	switch {
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !digit:
		return "Password must contain at least one number"
	case !symbol:
		return "Password must contain at least one special character"
	}
	return ""
}
