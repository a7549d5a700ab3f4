// Package identity provides anonymous user identities.
//
// Identity is deliberately thin: a user is an opaque id minted on first
// contact and pinned to the browser session with a cookie. There are no
// accounts and nothing to authenticate against.
package identity

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// CookieName carries the anonymous session id between requests.
const CookieName = "bingo_session"

// Provider mints and remembers anonymous identities. The in-memory set is
// only a fast-path cache; the cookie remains the source of truth for a
// returning session.
type Provider struct {
	mu    sync.Mutex
	known map[string]struct{}
}

// NewProvider creates a new Provider instance.
func NewProvider() *Provider {
	return &Provider{known: make(map[string]struct{})}
}

// GetOrCreate returns the session's user id, minting a new one and setting
// the session cookie when the request carries none.
func (p *Provider) GetOrCreate(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if _, parseErr := uuid.Parse(c.Value); parseErr == nil {
			p.remember(c.Value)
			return c.Value
		}
	}

	id := uuid.NewString()
	p.remember(id)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Known reports whether this process has seen the given id before.
func (p *Provider) Known(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.known[id]
	return ok
}

func (p *Provider) remember(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[id] = struct{}{}
}
