package oauth

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	pkgoauth "canvamcp/pkg/oauth"
)

// RegistrationKey identifies a dynamic client registration.
type RegistrationKey struct {
	// ServerURL is the normalized authorization server base URL.
	ServerURL string
	// CallbackURL is the redirect URI the client was registered with.
	CallbackURL string
}

func (k RegistrationKey) String() string {
	return k.ServerURL + "|" + k.CallbackURL
}

// RegistrationCache holds registered clients for the lifetime of the process.
// It is safe for concurrent use; concurrent writes for the same key are last-write-wins.
type RegistrationCache struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewRegistrationCache creates a cache whose entries live for ttl.
// A ttl <= 0 keeps entries until the process exits.
func NewRegistrationCache(ttl time.Duration) *RegistrationCache {
	if ttl <= 0 {
		return &RegistrationCache{c: gocache.New(gocache.NoExpiration, 0), ttl: gocache.NoExpiration}
	}
	return &RegistrationCache{c: gocache.New(ttl, time.Minute), ttl: ttl}
}

// Get returns the client registered under key.
func (r *RegistrationCache) Get(key RegistrationKey) (*pkgoauth.RegisteredClient, bool) {
	v, ok := r.c.Get(key.String())
	if !ok {
		return nil, false
	}
	client, ok := v.(*pkgoauth.RegisteredClient)
	return client, ok
}

// Set stores client under key.
func (r *RegistrationCache) Set(key RegistrationKey, client *pkgoauth.RegisteredClient) {
	r.c.Set(key.String(), client, r.ttl)
}

// Len returns the number of cached registrations.
func (r *RegistrationCache) Len() int {
	return r.c.ItemCount()
}
