// Package sources defines the contract every external data source
// client fulfils. Each client exposes a single fetch operation; all
// transport, auth, rate-limit and timeout concerns live inside the
// client, behind one generic error.
package sources

import (
	"context"
	"sync"
)

type Name string

const (
	Google         Name = "google"
	Tripadvisor    Name = "tripadvisor"
	Trustpilot     Name = "trustpilot"
	SocialMentions Name = "social_mentions"
	Sentiment      Name = "sentiment"
)

// FetchRequest carries only what a dispatched endpoint declared: the
// logical endpoint path, its identifier fields, and org context.
type FetchRequest struct {
	Endpoint    string
	Live        bool
	Identifiers map[string]string
	OrgID       string
}

type Client interface {
	Fetch(ctx context.Context, req FetchRequest) (map[string]interface{}, error)
}

// Registry maps a source name to its registered client. Routing by
// registered strategy keeps new sources additive: no dispatch code
// changes when one is added.
type Registry struct {
	mu      sync.RWMutex
	clients map[Name]Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[Name]Client),
	}
}

func (r *Registry) Register(name Name, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[name] = client
}

func (r *Registry) Lookup(name Name) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[name]
	return client, ok
}
