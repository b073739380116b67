// Package session keeps the per-browser state of the watchlist UI: the
// authenticated user id (the session principal) and one-shot flash messages.
//
// Two stores are provided. CookieStore keeps the whole session inside a
// signed and encrypted cookie. RedisStore keeps only an opaque session id in
// the cookie and the data itself in Redis.
package session

import (
	"net/http"
	"time"
)

const (
	CookieName = "watchlist_session"
	DefaultTTL = 14 * 24 * time.Hour
)

const (
	KindInfo  = "info"
	KindError = "error"
)

// Flash is a notification shown once, on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

type Data struct {
	UserID  int64   `json:"uid,omitempty"`
	Flashes []Flash `json:"f,omitempty"`
}

func (d Data) Authenticated() bool { return d.UserID > 0 }

func (d *Data) AddFlash(kind, msg string) {
	d.Flashes = append(d.Flashes, Flash{Kind: kind, Message: msg})
}

// PopFlashes returns the pending flashes and forgets them.
func (d *Data) PopFlashes() []Flash {
	f := d.Flashes
	d.Flashes = nil
	return f
}

// Store loads and persists Data for a request.
//
// Load never fails on a missing, expired or tampered cookie: those yield an
// empty Data. Errors are reserved for backend failures.
type Store interface {
	Load(r *http.Request) (Data, error)
	Save(w http.ResponseWriter, r *http.Request, d Data) error
	// Renew saves d under a fresh session identity, discarding the one the
	// request presented. Called whenever the principal changes.
	Renew(w http.ResponseWriter, r *http.Request, d Data) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// cookieOpts is shared by both stores.
type cookieOpts struct {
	ttl    time.Duration
	secure bool
}

func setCookie(w http.ResponseWriter, r *http.Request, value string, o cookieOpts) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   o.secure || r.TLS != nil,
		MaxAge:   int(o.ttl.Seconds()),
	})
}

func expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
