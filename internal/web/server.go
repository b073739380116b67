package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/example/watchlist/internal/auth"
	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/movies"
	"github.com/example/watchlist/internal/session"
	"github.com/example/watchlist/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html static/*
var fs embed.FS

// User-facing flash messages.
const (
	MsgInvalidInput       = "Invalid input."
	MsgInvalidCredentials = "Invalid username or password."
	MsgLoggedIn           = "Login success."
	MsgLoggedOut          = "Goodbye."
	MsgCreated            = "Item created."
	MsgUpdated            = "Item updated."
	MsgDeleted            = "Item deleted."
	MsgSettingsUpdated    = "Settings updated."
)

type Server struct {
	DB       *db.DB
	Auth     *auth.Authenticator
	Sessions session.Store
	Movies   *movies.Repo
	Users    *users.Repo
	Log      *log.Logger
}

type tmplData struct {
	Title    string
	Owner    users.User
	LoggedIn bool

	Flashes []session.Flash
	Movies  []movies.Movie
	Movie   movies.Movie
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.NotFound(s.handleNotFound)

	r.Handle("/static/*", http.FileServer(http.FS(fs)))
	r.Get("/healthz", s.handleHealthz)

	r.Get("/", s.handleIndex)
	r.With(s.Auth.RequireAuth).Post("/", s.handleCreate)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth.RequireAuth)
		r.Get("/logout", s.handleLogout)
		r.Get("/movie/edit/{id:[0-9]+}", s.handleEditForm)
		r.Post("/movie/edit/{id:[0-9]+}", s.handleEdit)
		r.Post("/movie/delete/{id:[0-9]+}", s.handleDelete)
		r.Get("/settings", s.handleSettingsForm)
		r.Post("/settings", s.handleSettings)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"req_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Ping(r.Context()); err != nil {
		s.Log.Warn("healthz: db ping failed", "err", err)
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Movies.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "templates/index.html", tmplData{Movies: ms})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m := movies.New(r.FormValue("title"), r.FormValue("year"))
	if err := m.Validate(); err != nil {
		s.flashRedirect(w, r, session.KindError, MsgInvalidInput, "/")
		return
	}
	if _, err := s.Movies.Create(r.Context(), m); err != nil {
		s.fail(w, r, err)
		return
	}
	s.flashRedirect(w, r, session.KindInfo, MsgCreated, "/")
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "templates/login.html", tmplData{Title: "Login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.flashRedirect(w, r, session.KindError, MsgInvalidInput, auth.LoginPath)
		return
	}

	u, err := s.Auth.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.flashRedirect(w, r, session.KindError, MsgInvalidCredentials, auth.LoginPath)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	d, err := s.Sessions.Load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d.UserID = u.ID
	d.AddFlash(session.KindInfo, MsgLoggedIn)
	if err := s.Sessions.Renew(w, r, d); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	d, err := s.Sessions.Load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d.UserID = 0
	d.AddFlash(session.KindInfo, MsgLoggedOut)
	if err := s.Sessions.Renew(w, r, d); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMovie(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "templates/edit.html", tmplData{Title: "Edit", Movie: m})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMovie(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	upd := movies.New(r.FormValue("title"), r.FormValue("year"))
	upd.ID = m.ID
	if err := upd.Validate(); err != nil {
		s.flashRedirect(w, r, session.KindError, MsgInvalidInput, "/movie/edit/"+strconv.FormatInt(m.ID, 10))
		return
	}
	if err := s.Movies.Update(r.Context(), upd); err != nil {
		s.fail(w, r, err)
		return
	}
	s.flashRedirect(w, r, session.KindInfo, MsgUpdated, "/")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadMovie(w, r)
	if !ok {
		return
	}
	if err := s.Movies.Delete(r.Context(), m.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.flashRedirect(w, r, session.KindInfo, MsgDeleted, "/")
}

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "templates/settings.html", tmplData{Title: "Settings"})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if err := users.ValidateName(name); err != nil {
		s.flashRedirect(w, r, session.KindError, MsgInvalidInput, "/settings")
		return
	}
	if err := s.Users.UpdateName(r.Context(), u.ID, name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.flashRedirect(w, r, session.KindInfo, MsgSettingsUpdated, "/")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "templates/404.html", tmplData{Title: "404"})
}

// loadMovie resolves the {id} path parameter, answering 404 itself when the
// movie does not exist.
func (s *Server) loadMovie(w http.ResponseWriter, r *http.Request) (movies.Movie, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.handleNotFound(w, r)
		return movies.Movie{}, false
	}
	m, err := s.Movies.Get(r.Context(), id)
	if db.IsNotFound(err) {
		s.handleNotFound(w, r)
		return movies.Movie{}, false
	}
	if err != nil {
		s.fail(w, r, err)
		return movies.Movie{}, false
	}
	return m, true
}

func (s *Server) flashRedirect(w http.ResponseWriter, r *http.Request, kind, msg, to string) {
	d, err := s.Sessions.Load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d.AddFlash(kind, msg)
	if err := s.Sessions.Save(w, r, d); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Error("request failed", "path", r.URL.Path, "req_id", middleware.GetReqID(r.Context()), "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// render fills in the per-request page state (owner, principal, pending
// flashes) and executes the page inside the base layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data tmplData) {
	owner, err := s.Users.First(r.Context())
	if err != nil && !db.IsNotFound(err) {
		s.fail(w, r, err)
		return
	}
	data.Owner = owner

	if _, ok := auth.UserFromContext(r.Context()); ok {
		data.LoggedIn = true
	} else {
		_, data.LoggedIn, err = s.Auth.CurrentUser(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	sess, err := s.Sessions.Load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if data.Flashes = sess.PopFlashes(); len(data.Flashes) > 0 {
		if !data.LoggedIn {
			sess.UserID = 0
		}
		if err := s.Sessions.Save(w, r, sess); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Log.Error("render failed", "template", name, "err", err)
	}
}

func Start(ctx context.Context, logger *log.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
