package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/arjunm/healthmate-web-ui/internal/models"
)

// HandleSubmitQuestionnaire stores the seven health-intake answers. A blank
// answer rejects the submission before any network call, mirroring the
// required-field validation of the intake form.
func (m *Main) HandleSubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.requireUser(w, r); !ok {
		return
	}

	q := models.Questionnaire{
		Age:            r.FormValue("age"),
		Gender:         r.FormValue("gender"),
		MedicalHistory: r.FormValue("medical_history"),
		Medications:    r.FormValue("medications"),
		Allergies:      r.FormValue("allergies"),
		Height:         r.FormValue("height"),
		Weight:         r.FormValue("weight"),
	}

	if missing := q.MissingFields(); len(missing) > 0 {
		m.logger.Debug("Questionnaire rejected",
			slog.String("missing", strings.Join(missing, ",")))
		http.Redirect(w, r,
			homePath+"?notice="+url.QueryEscape("Please fill in all fields"),
			http.StatusSeeOther)
		return
	}

	if err := m.backend.SubmitQuestionnaire(r.Context(), q); err != nil {
		m.logger.Error("Failed to submit questionnaire", slog.String(errLoggerKey, err.Error()))
		http.Redirect(w, r,
			homePath+"?notice="+url.QueryEscape(userMessage(err, "Failed to submit questionnaire")),
			http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, homePath, http.StatusSeeOther)
}
