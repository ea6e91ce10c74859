// internal/session/session.go
//
// Signed session cookies.
//
// Context
//   A login stores only the account id in a cookie named "central_session".
//   The value is encoded with gorilla/securecookie: HMAC-SHA256 signed and
//   timestamped, so a tampered or expired cookie decodes to an error and
//   the request is treated as anonymous.  Middleware reloads the account
//   on every request, so role changes and deletions apply immediately.
//
// Keys
//   `http.session_key` seeds the hash key through SHA-256, so any length
//   works.  When it is empty a random key is generated at startup and
//   sessions do not survive a restart.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/central"
)

const (
	cookieName = "central_session"
	defaultTTL = 12 * time.Hour
)

type payload struct {
	UserID int64 `json:"uid"`
}

// Manager issues and verifies session cookies.
type Manager struct {
	codec *securecookie.SecureCookie
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// New returns a Manager keyed by key.  ttl <= 0 selects the default.
func New(key string, ttl time.Duration, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.S()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	var hashKey []byte
	if key == "" {
		hashKey = securecookie.GenerateRandomKey(32)
		log.Warn("http.session_key not set; using an ephemeral key")
	} else {
		sum := sha256.Sum256([]byte(key))
		hashKey = sum[:]
	}

	codec := securecookie.New(hashKey, nil).
		MaxAge(int(ttl.Seconds())).
		SetSerializer(securecookie.JSONEncoder{})

	return &Manager{codec: codec, ttl: ttl, log: log.Named("session")}
}

// Login sets the session cookie for userID.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	val, err := m.codec.Encode(cookieName, payload{UserID: userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// UserID returns the account id carried by r's cookie.  ok is false when
// the cookie is missing, tampered, or expired.
func (m *Manager) UserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	var p payload
	if err := m.codec.Decode(cookieName, c.Value, &p); err != nil {
		return 0, false
	}
	return p.UserID, p.UserID > 0
}

// Middleware loads the session's account from q into the request
// context.  Requests without a valid session pass through anonymous.
func (m *Manager) Middleware(q central.Queryer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := m.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			u, err := central.UserByID(r.Context(), q, id)
			switch {
			case errors.Is(err, central.ErrNotFound):
				m.Logout(w)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.log.Errorw("load session user", "user_id", id, "err", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}
