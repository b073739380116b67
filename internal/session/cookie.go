package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

type CookieStore struct {
	sc *securecookie.SecureCookie
	cookieOpts
}

func NewCookieStore(hashKey, blockKey []byte, ttl time.Duration) *CookieStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &CookieStore{sc: sc, cookieOpts: cookieOpts{ttl: ttl}}
}

// SetSecure marks the session cookie Secure even on plain HTTP requests,
// for deployments behind a TLS-terminating proxy.
func (s *CookieStore) SetSecure(on bool) { s.secure = on }

func (s *CookieStore) Load(r *http.Request) (Data, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Data{}, nil
	}
	var d Data
	if err := s.sc.Decode(CookieName, c.Value, &d); err != nil {
		return Data{}, nil
	}
	return d, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, d Data) error {
	if !d.Authenticated() && len(d.Flashes) == 0 {
		expireCookie(w)
		return nil
	}
	encoded, err := s.sc.Encode(CookieName, d)
	if err != nil {
		return err
	}
	setCookie(w, r, encoded, s.cookieOpts)
	return nil
}

// Renew is Save: the whole session lives in the cookie, so there is no
// server-side identity to rotate.
func (s *CookieStore) Renew(w http.ResponseWriter, r *http.Request, d Data) error {
	return s.Save(w, r, d)
}

func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	expireCookie(w)
	return nil
}
