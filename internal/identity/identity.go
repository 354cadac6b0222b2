// Package identity assigns stable identifiers to named accounts and
// entities for the duration of a conversion run. Resolution consults an
// optional external lookup and falls back to sequential run-local IDs;
// it never fails.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned by a Lookup when no account matches the name.
var ErrNotFound = errors.New("account not found")

// Lookup is the external name-to-id collaborator. Implementations may
// cross a network boundary; callers bound each call with a context
// deadline and degrade to local IDs on any error.
type Lookup interface {
	// LookupName resolves an entity name to an identifier, or
	// ErrNotFound when the name is unknown.
	LookupName(ctx context.Context, name string) (string, error)

	// Available reports whether the collaborator is reachable.
	Available(ctx context.Context) bool
}

// counterSeed is the first fallback identifier issued per run.
const counterSeed = 1

// Table maps normalized entity names to assigned identifiers for one
// conversion run. Safe for concurrent use, so a single table may be
// shared across a batch of related documents when the caller explicitly
// wants cross-document identifier consistency.
type Table struct {
	mu   sync.Mutex
	ids  map[string]string
	next int
}

// NewTable creates an empty table with the fallback counter at its seed.
func NewTable() *Table {
	return &Table{
		ids:  make(map[string]string),
		next: counterSeed,
	}
}

// Normalize canonicalizes an entity name for table keys: unicode NFC,
// trimmed, internal whitespace collapsed. Case is preserved.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	return strings.Join(strings.Fields(name), " ")
}

// get returns the cached id for a normalized name.
func (t *Table) get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.ids[key]
	return id, ok
}

// put caches an id for a normalized name, keeping the first writer's
// value so "same name, same id" holds under concurrent resolution.
func (t *Table) put(key, id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.ids[key]; ok {
		return existing
	}
	t.ids[key] = id
	return id
}

// issue caches and returns the next sequential fallback id for a
// normalized name.
func (t *Table) issue(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.ids[key]; ok {
		return existing
	}
	id := strconv.Itoa(t.next)
	t.next++
	t.ids[key] = id
	return id
}

// Len returns the number of distinct names resolved so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// DefaultLookupTimeout bounds a single external lookup call.
const DefaultLookupTimeout = 5 * time.Second

// Resolver resolves entity names to identifiers against a run-local
// Table, consulting an external Lookup when configured.
type Resolver struct {
	table   *Table
	lookup  Lookup
	timeout time.Duration
}

// NewResolver creates a resolver over the given table. lookup may be
// nil, in which case only sequential fallback IDs are issued.
func NewResolver(table *Table, lookup Lookup) *Resolver {
	if table == nil {
		table = NewTable()
	}
	return &Resolver{
		table:   table,
		lookup:  lookup,
		timeout: DefaultLookupTimeout,
	}
}

// SetTimeout overrides the per-call lookup deadline.
func (r *Resolver) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Resolve returns the identifier for a name. Cached results win; then
// the external lookup within its deadline; then a sequential fallback
// id. Lookup timeouts and errors are treated as not-found without
// retry. Resolving the same normalized name twice in one run always
// returns the same id.
func (r *Resolver) Resolve(ctx context.Context, name string) string {
	key := Normalize(name)
	if key == "" {
		return r.table.issue(key)
	}

	if id, ok := r.table.get(key); ok {
		return id
	}

	if r.lookup != nil {
		lctx, cancel := context.WithTimeout(ctx, r.timeout)
		id, err := r.lookup.LookupName(lctx, key)
		cancel()
		if err == nil && id != "" {
			// Write back so re-lookups within the run are idempotent
			// even if the external service answers differently later.
			return r.table.put(key, id)
		}
	}

	return r.table.issue(key)
}
