// Package dedup remembers which record was created for a given submission so
// that an identical submission arriving shortly afterwards can be answered with
// the existing record instead of a new one.
//
// HOW IT WORKS:
// A submission is reduced to a fingerprint (SHA-256 over its identifying fields).
// After the service inserts a record it calls Remember(fingerprint, id, window).
// A later submission with the same fingerprint calls Lookup and gets the id back
// until the window elapses. The window is the TTL of the entry, so "how long do
// we collapse duplicates for" is one explicit, tunable number.
//
// This is best-effort. Lookup and Remember are separate calls, so two requests
// racing through Lookup at the same moment can both miss and both insert.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"time"
)

// DefaultWindow is how long an identical submission collapses onto the first one.
const DefaultWindow = 5 * time.Second

// Key holds the fields that make two submissions "the same".
// Leave a field empty when it should not distinguish submissions.
type Key struct {
	Topic    string
	Type     string
	Content  string
	ImageURL string
}

// Fingerprint returns a stable hex digest for k.
//
// Fields are length-prefixed before hashing so ("ab","c") and ("a","bc")
// can never produce the same digest.
func (k Key) Fingerprint() string {
	h := sha256.New()
	for _, field := range []string{k.Topic, k.Type, k.Content, k.ImageURL} {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		io.WriteString(h, field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Index maps fingerprints to record IDs for a bounded time.
type Index interface {
	// Lookup returns the remembered ID, or ok=false when there is none
	// (never stored, or expired).
	Lookup(ctx context.Context, fingerprint string) (id string, ok bool, err error)
	// Remember stores id under fingerprint for ttl.
	Remember(ctx context.Context, fingerprint, id string, ttl time.Duration) error
}
