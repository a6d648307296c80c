// Package cuid generates compact, time-sortable identifiers for learning
// objects and their satellite records. An identifier is the base32 encoding of
// the creation timestamp followed by a short content hash, so ids created
// later sort later and ids for identical content at the same instant are
// identical.
package cuid

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"time"

	"github.com/zeebo/xxh3"
)

var encoding = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

type CUID struct {
	millis uint64
	hash   uint64
}

// New derives an identifier from the given seed bytes and timestamp.
func New(seed []byte, t time.Time) CUID {
	return CUID{
		millis: uint64(t.UnixMilli()),
		hash:   xxh3.Hash(seed),
	}
}

// NewRandom derives an identifier from random seed bytes and the current time.
func NewRandom() CUID {
	seed := make([]byte, 16)
	rand.Read(seed)
	return New(seed, time.Now())
}

func (c CUID) String() string {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], c.millis)
	binary.BigEndian.PutUint64(buf[8:], c.hash)
	// drop the two leading zero bytes of the millisecond epoch so the
	// encoded form stays 23 characters until the year 10889
	return encoding.EncodeToString(buf[2:])
}

// Time recovers the creation timestamp embedded in the identifier.
func (c CUID) Time() time.Time {
	return time.UnixMilli(int64(c.millis))
}
