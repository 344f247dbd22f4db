// Package idx mints row identifiers. Every user, app, review, reply and
// media row is keyed by a ULID so primary keys sort in insertion order.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a 26 character Crockford base32 ULID.
type ID string

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New mints an ID for the current instant.
func New() ID { return NewAt(time.Now()) }

// NewAt mints an ID stamped with t. IDs minted for the same millisecond
// still increase.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String())
}

func (id ID) String() string { return string(id) }

// Valid reports whether s is a well formed ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Time returns the creation instant embedded in id, or the zero time when
// id is malformed.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
