package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"flashdeck/internal/decks"
	"flashdeck/internal/security"
	"flashdeck/internal/service"
	"flashdeck/internal/study"
)

var notices = map[string]string{
	"empty":   "That deck has no cards to study.",
	"expired": "Your study session has ended. Pick a deck to start again.",
}

// StudyHandler serves deck selection and study sessions
type StudyHandler struct {
	studyService *service.StudyService
	tokens       *security.SessionTokens
	csrf         *security.CSRFGenerator
	middleware   *Middleware
	templates    *template.Template
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *service.StudyService, tokens *security.SessionTokens, csrf *security.CSRFGenerator, middleware *Middleware, templates *template.Template) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		tokens:       tokens,
		csrf:         csrf,
		middleware:   middleware,
		templates:    templates,
	}
}

// Home lists the available decks
func (h *StudyHandler) Home(w http.ResponseWriter, r *http.Request) {
	nonce := h.ensureNonce(w, r)
	csrfToken, err := h.csrf.GenerateToken(security.Binding{Nonce: nonce})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	data := IndexViewData{
		Title:     "Flashdeck",
		CSRFToken: csrfToken,
		Notice:    notices[r.URL.Query().Get("notice")],
	}

	infos, err := h.studyService.Decks()
	if err != nil {
		log.Printf("Error listing decks: %v", err)
		data.Error = "The deck folder could not be read."
	}
	for _, info := range infos {
		view := DeckView{DeckInfo: info}
		if summary, err := h.studyService.DeckSummary(info.Name); err == nil {
			view.Summary = summary
		} else {
			log.Printf("Error summarizing deck %s: %v", info.Name, err)
		}
		data.Decks = append(data.Decks, view)
	}

	if sessionID, ok := h.middleware.sessionFromCookie(r); ok {
		if view, err := h.studyService.Current(sessionID); err == nil {
			data.Resume = view
		}
	}

	h.render(w, "index.tmpl", data)
}

// StartDeck starts a study session on the deck named in the path
func (h *StudyHandler) StartDeck(w http.ResponseWriter, r *http.Request) {
	deckName := r.PathValue("deck")

	sess, err := h.studyService.Start(deckName)
	switch {
	case err == nil:
	case errors.Is(err, decks.ErrInvalidDeckName):
		respondWithError(w, http.StatusBadRequest, "Invalid deck name", "", err)
		return
	case errors.Is(err, decks.ErrDeckNotFound):
		respondWithError(w, http.StatusNotFound, "Deck not found", "", err)
		return
	case errors.Is(err, study.ErrEmptyDeck), errors.Is(err, decks.ErrNoCards):
		http.Redirect(w, r, "/?notice=empty", http.StatusSeeOther)
		return
	case errors.Is(err, decks.ErrMissingColumns), errors.Is(err, decks.ErrInvalidCardID):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error(), "Error loading deck", err)
		return
	default:
		respondWithError(w, http.StatusInternalServerError, "Failed to start study session", "Error starting study session", err)
		return
	}

	token, expires, err := h.tokens.Issue(sess.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing session token", err)
		return
	}
	http.SetCookie(w, security.NewCookie(r, SessionCookieName, token, expires))
	http.Redirect(w, r, "/study", http.StatusSeeOther)
}

// ShowStudy renders the current card
func (h *StudyHandler) ShowStudy(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	view, err := h.studyService.Current(sessionID)
	if err != nil {
		h.handleStudyError(w, r, err)
		return
	}
	if view.Finished {
		http.Redirect(w, r, "/finished", http.StatusSeeOther)
		return
	}

	csrfToken, err := h.csrf.GenerateToken(security.Binding{SessionID: sessionID})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	h.render(w, "study.tmpl", StudyViewData{
		Title:     view.DeckName + " - Flashdeck",
		View:      view,
		CSRFToken: csrfToken,
	})
}

// ShowAnswer reveals the back of the current card
func (h *StudyHandler) ShowAnswer(w http.ResponseWriter, r *http.Request) {
	if _, err := h.studyService.ShowAnswer(GetSessionID(r.Context())); err != nil {
		h.handleStudyError(w, r, err)
		return
	}
	http.Redirect(w, r, "/study", http.StatusSeeOther)
}

// Decide records known or review_again for the card named by the form's
// card field. A repeated submission finds a different card shown and is
// sent back to the current card unapplied.
func (h *StudyHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	shown, err := strconv.Atoi(r.FormValue("card"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing or invalid card", "", nil)
		return
	}

	sessionID := GetSessionID(r.Context())
	view, err := h.studyService.Decide(sessionID, r.FormValue("decision"), shown)
	switch {
	case errors.Is(err, service.ErrStaleDecision):
		log.Printf("Ignoring stale decision for card %d in session %s", shown, sessionID)
		http.Redirect(w, r, "/study", http.StatusSeeOther)
		return
	case errors.Is(err, service.ErrSessionNotFound):
		// The first of two submissions may have finished the session
		if _, cerr := h.studyService.Completed(sessionID); cerr == nil {
			http.Redirect(w, r, "/finished", http.StatusSeeOther)
			return
		}
		h.handleStudyError(w, r, err)
		return
	case err != nil:
		h.handleStudyError(w, r, err)
		return
	}
	if view.Finished {
		http.Redirect(w, r, "/finished", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/study", http.StatusSeeOther)
}

// Status reports session progress as JSON
func (h *StudyHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.studyService.Status(GetSessionID(r.Context()))
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondWithJSONError(w, http.StatusNotFound, "Study session not found", "", nil)
		return
	case err != nil:
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Error reading session status", err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// Exit abandons the session and returns to deck selection
func (h *StudyHandler) Exit(w http.ResponseWriter, r *http.Request) {
	if err := h.studyService.Abandon(GetSessionID(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to end study session", "Error abandoning session", err)
		return
	}
	http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Finished shows the summary of a completed session and clears the cookie
func (h *StudyHandler) Finished(w http.ResponseWriter, r *http.Request) {
	completed, err := h.studyService.Completed(GetSessionID(r.Context()))
	if errors.Is(err, service.ErrSessionNotFound) {
		http.Redirect(w, r, "/study", http.StatusSeeOther)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading completed session", err)
		return
	}

	http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
	h.render(w, "finished.tmpl", FinishedViewData{
		Title:     "Finished - Flashdeck",
		Completed: completed,
	})
}

// History lists recently completed sessions
func (h *StudyHandler) History(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.studyService.History(historyLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error loading history", err)
		return
	}
	h.render(w, "history.tmpl", HistoryViewData{
		Title:    "History - Flashdeck",
		Sessions: sessions,
	})
}

// handleStudyError maps service errors to responses
func (h *StudyHandler) handleStudyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		http.SetCookie(w, security.DeleteCookie(r, SessionCookieName))
		http.Redirect(w, r, "/?notice=expired", http.StatusSeeOther)
	case errors.Is(err, study.ErrUnknownIndex):
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Study session references a card outside its deck", err)
	case service.IsClientError(err):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error handling study session", err)
	}
}

func (h *StudyHandler) ensureNonce(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(NonceCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	nonce := security.NewNonce()
	http.SetCookie(w, security.NewCookie(r, NonceCookieName, nonce, time.Now().Add(365*24*time.Hour)))
	return nonce
}

func (h *StudyHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// RegisterRoutes wires the study pages into mux
func (h *StudyHandler) RegisterRoutes(mux *http.ServeMux) {
	m := h.middleware

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /history", h.History)
	mux.HandleFunc("POST /start/{deck}", m.RateLimit(m.CSRFProtect(h.StartDeck)))

	mux.HandleFunc("GET /study", m.RequireSession(h.ShowStudy))
	mux.HandleFunc("POST /study/show", m.RequireSession(m.CSRFProtect(h.ShowAnswer)))
	mux.HandleFunc("POST /study/decide", m.RequireSession(m.CSRFProtect(h.Decide)))
	mux.HandleFunc("GET /study/status", m.RequireSession(h.Status))
	mux.HandleFunc("POST /study/exit", m.RequireSession(m.CSRFProtect(h.Exit)))
	mux.HandleFunc("GET /finished", m.RequireSession(h.Finished))
}
