// Package web serves the single-user study UI: the note library, the
// note editor with its flashcards, and the review flow.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ultiflow/ultiflow/internal/domain"
	"github.com/ultiflow/ultiflow/internal/learning"
	"github.com/ultiflow/ultiflow/internal/remote"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Store persists the knowledge base locally after mutations.
type Store interface {
	SaveNotes(notes []*domain.Note) error
}

// Syncer pushes the full snapshot to the remote sync service.
type Syncer interface {
	Save(ctx context.Context, email string, snap *remote.Snapshot) error
}

// Server holds the dependencies for the HTTP server. It owns the single
// user's live review session; abandoning the review page simply leaves
// the session to be replaced by the next start.
type Server struct {
	kb        *learning.KnowledgeBase
	store     Store
	sync      Syncer
	syncEmail string
	// extras carries the planner/goal/journal payloads pulled from the
	// sync service at startup, so pushes do not drop them.
	extras    remote.Snapshot
	router    *http.ServeMux
	templates *template.Template
	markdown  goldmark.Markdown
	validate  *validator.Validate

	// mu guards the knowledge base, the live session and the warning
	// banner across concurrent requests. Persistence snapshots are
	// taken under it, so the background writer only ever sees a
	// detached copy.
	mu      sync.Mutex
	session *learning.Session
	warning string
}

// NewServer creates and configures a new server. sync may be nil when
// remote sync is not configured.
func NewServer(kb *learning.KnowledgeBase, store Store, syncer Syncer, syncEmail string, extras remote.Snapshot) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		kb:        kb,
		store:     store,
		sync:      syncer,
		syncEmail: syncEmail,
		extras:    extras,
		router:    http.NewServeMux(),
		templates: tpl,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		validate:  validator.New(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /{$}", s.handleLibrary)
	s.router.HandleFunc("POST /notes", s.handleCreateNote)
	s.router.HandleFunc("GET /notes/{id}", s.handleNote)
	s.router.HandleFunc("POST /notes/{id}/content", s.handleUpdateContent)
	s.router.HandleFunc("POST /notes/{id}/rename", s.handleRenameNote)
	s.router.HandleFunc("POST /notes/{id}/delete", s.handleDeleteNote)
	s.router.HandleFunc("POST /notes/{id}/cards", s.handleAddCard)
	s.router.HandleFunc("POST /notes/{id}/cards/{cardID}/delete", s.handleDeleteCard)

	s.router.HandleFunc("GET /review", s.handleReview)
	s.router.HandleFunc("POST /review/start", s.handleStartReview)
	s.router.HandleFunc("POST /review/reveal", s.handleReveal)
	s.router.HandleFunc("POST /review/answer", s.handleAnswer)
	s.router.HandleFunc("POST /review/quit", s.handleQuitReview)
}

// persist snapshots the knowledge base to durable storage, best effort
// and off the request path. The caller must hold s.mu: the deep copy is
// taken under the lock so the background write never races the next
// mutation. The in-memory state stays authoritative; a failure is
// logged and surfaced as a banner on the next page render.
func (s *Server) persist() {
	go s.persistNow(s.kb.Snapshot())
}

func (s *Server) persistNow(notes []*domain.Note) {
	var failures []string

	if err := s.store.SaveNotes(notes); err != nil {
		slog.Warn("failed to save knowledge base locally", "error", err)
		failures = append(failures, "local save failed")
	}

	if s.sync != nil {
		snap := s.extras
		snap.KnowledgeBase = notes
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.sync.Save(ctx, s.syncEmail, &snap); err != nil {
			slog.Warn("failed to push snapshot to sync service", "email", s.syncEmail, "error", err)
			failures = append(failures, "sync push failed")
		}
	}

	s.mu.Lock()
	if len(failures) > 0 {
		s.warning = "Changes are kept in memory but could not all be persisted (" +
			strings.Join(failures, ", ") + "). They will be retried on the next change."
	} else {
		s.warning = ""
	}
	s.mu.Unlock()
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// --- Library & notes ---

type libraryData struct {
	Notes      []*domain.Note
	Query      string
	TotalNotes int
	TotalCards int
	DueCount   int
	Warning    string
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	s.mu.Lock()
	notes := s.kb.Snapshot()
	data := libraryData{
		Query:      query,
		TotalNotes: len(notes),
		TotalCards: s.kb.TotalCards(),
		DueCount:   s.kb.CountDue(s.kb.Today()),
		Warning:    s.warning,
	}
	s.mu.Unlock()

	if query != "" {
		filtered := make([]*domain.Note, 0, len(notes))
		for _, n := range notes {
			if strings.Contains(strings.ToLower(n.Title), strings.ToLower(query)) {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	data.Notes = notes

	s.render(w, "library", data)
}

type noteForm struct {
	Title    string `validate:"required"`
	Category string
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	form := noteForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Category: strings.TrimSpace(r.PostFormValue("category")),
	}
	if err := s.validate.Struct(form); err != nil {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	note, err := s.kb.CreateNote(form.Title, form.Category)
	if err == nil {
		s.persist()
	}
	s.mu.Unlock()
	if err != nil {
		var verr *learning.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/notes/"+note.ID, http.StatusSeeOther)
}

type noteData struct {
	Note        *domain.Note
	ContentHTML template.HTML
	DueCount    int
	Warning     string
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	note := s.kb.FindNote(r.PathValue("id"))
	if note != nil {
		note = note.Clone()
	}
	dueCount := s.kb.CountDue(s.kb.Today())
	warning := s.warning
	s.mu.Unlock()
	if note == nil {
		http.NotFound(w, r)
		return
	}

	var rendered bytes.Buffer
	if err := s.markdown.Convert([]byte(note.Content), &rendered); err != nil {
		slog.Error("failed to render note content", "note", note.ID, "error", err)
		rendered.Reset()
		rendered.WriteString(template.HTMLEscapeString(note.Content))
	}

	s.render(w, "note", noteData{
		Note:        note,
		ContentHTML: template.HTML(rendered.String()),
		DueCount:    dueCount,
		Warning:     warning,
	})
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	s.mu.Lock()
	err := s.kb.UpdateNoteContent(noteID, r.PostFormValue("content"))
	if err == nil {
		s.persist()
	}
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, learning.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/notes/"+noteID, http.StatusSeeOther)
}

func (s *Server) handleRenameNote(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	s.mu.Lock()
	err := s.kb.RenameNote(noteID, strings.TrimSpace(r.PostFormValue("title")))
	if err == nil {
		s.persist()
	}
	s.mu.Unlock()
	switch {
	case err == nil:
		http.Redirect(w, r, "/notes/"+noteID, http.StatusSeeOther)
	case errors.Is(err, learning.ErrNotFound):
		http.NotFound(w, r)
	default:
		var verr *learning.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleDeleteNote deletes a note and its cards. The yes/no confirmation
// happens in the browser before this request is ever sent.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.kb.DeleteNote(r.PathValue("id"))
	s.persist()
	s.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type cardForm struct {
	Question string `validate:"required"`
	Answer   string `validate:"required"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	form := cardForm{
		Question: strings.TrimSpace(r.PostFormValue("question")),
		Answer:   strings.TrimSpace(r.PostFormValue("answer")),
	}
	if err := s.validate.Struct(form); err != nil {
		http.Error(w, "Both question and answer are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, err := s.kb.AddCard(noteID, form.Question, form.Answer)
	if err == nil {
		s.persist()
	}
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, learning.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		var verr *learning.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/notes/"+noteID, http.StatusSeeOther)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	s.mu.Lock()
	s.kb.DeleteCard(noteID, r.PathValue("cardID"))
	s.persist()
	s.mu.Unlock()
	http.Redirect(w, r, "/notes/"+noteID, http.StatusSeeOther)
}

// --- Review flow ---

type reviewData struct {
	DueCount int
	Active   bool
	Card     *domain.Card
	// Number is the 1-based position of the current card, for display.
	Number   int
	Total    int
	Revealed bool
	Complete bool
	Warning  string
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := reviewData{
		DueCount: s.kb.CountDue(s.kb.Today()),
		Warning:  s.warning,
	}
	if s.session != nil {
		data.Active = true
		data.Number = s.session.Position() + 1
		data.Total = s.session.Len()
		data.Revealed = s.session.Revealed()
		data.Complete = s.session.Complete()
		if c := s.session.Current(); c != nil {
			card := *c
			data.Card = &card
		}
	}
	s.mu.Unlock()

	s.render(w, "review", data)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	session, err := s.kb.NewSession(s.kb.DueCards(s.kb.Today()))
	if err == nil {
		s.session = session
	}
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, learning.ErrNothingDue) {
			// Normal state: the review page shows the all-done panel.
			http.Redirect(w, r, "/review", http.StatusSeeOther)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		http.Redirect(w, r, "/review", http.StatusSeeOther)
		return
	}
	err := s.session.Reveal()
	s.mu.Unlock()

	if err != nil {
		// Out-of-sequence calls are a UI bug, not a user condition.
		slog.Error("illegal reveal", "error", err)
		http.Error(w, "Conflict", http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	success := r.PostFormValue("outcome") == "success"

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		http.Redirect(w, r, "/review", http.StatusSeeOther)
		return
	}
	err := s.session.Answer(success)
	if err == nil {
		// Each outcome is durable on its own; abandoning the rest
		// later loses nothing.
		s.persist()
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, learning.ErrInvalidState) {
			slog.Error("illegal answer", "error", err)
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

func (s *Server) handleQuitReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
