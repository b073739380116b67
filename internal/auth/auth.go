package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/example/watchlist/internal/db"
	"github.com/example/watchlist/internal/logging"
	"github.com/example/watchlist/internal/session"
	"github.com/example/watchlist/internal/users"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	LoginPath            = "/login"
	LoginRequiredMessage = "Please log in to access this page."
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Authenticator struct {
	users    *users.Repo
	sessions session.Store
	log      *log.Logger
}

type ctxKey string

const userKey ctxKey = "user"

// New builds an Authenticator. A nil logger discards.
func New(u *users.Repo, s session.Store, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Authenticator{users: u, sessions: s, log: logger}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	return err == nil
}

// Authenticate checks the credentials against the sole stored user.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	u, err := a.users.First(ctx)
	if db.IsNotFound(err) {
		return users.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return users.User{}, err
	}
	// a user seeded without credentials can never log in
	if u.Username == "" || u.PasswordHash == "" {
		return users.User{}, ErrInvalidCredentials
	}
	if !secureEq(u.Username, username) || !CheckPassword(u.PasswordHash, password) {
		return users.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// CurrentUser resolves the session principal. A session pointing at a user
// that no longer exists is cleared and reported as anonymous.
func (a *Authenticator) CurrentUser(w http.ResponseWriter, r *http.Request) (users.User, bool, error) {
	d, err := a.sessions.Load(r)
	if err != nil {
		return users.User{}, false, err
	}
	if !d.Authenticated() {
		return users.User{}, false, nil
	}
	u, err := a.users.Get(r.Context(), d.UserID)
	if db.IsNotFound(err) {
		return users.User{}, false, a.sessions.Clear(w, r)
	}
	if err != nil {
		return users.User{}, false, err
	}
	return u, true, nil
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok, err := a.CurrentUser(w, r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if !ok {
			d, err := a.sessions.Load(r)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			d.UserID = 0
			d.AddFlash(session.KindError, LoginRequiredMessage)
			if err := a.sessions.Save(w, r, d); err != nil {
				a.fail(w, r, err)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (a *Authenticator) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Error("auth check failed", "path", r.URL.Path, "req_id", middleware.GetReqID(r.Context()), "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func WithUser(ctx context.Context, u users.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (users.User, bool) {
	u, ok := ctx.Value(userKey).(users.User)
	return u, ok
}

func secureEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
