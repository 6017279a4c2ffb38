// Package idgen produces the 24-character hex identifiers carried by reference
// entries. An id is the creation time in unix seconds, 32 random bits and a
// sequence hint, each rendered as 8 lowercase hex digits.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Length is the length of every id produced by New.
const Length = 24

// ErrInvalidLength is returned by Decode for ids that are not Length long.
var ErrInvalidLength = errors.New("invalid ID length")

// now is replaced in tests.
var now = time.Now

// New returns a fresh id whose last 8 hex digits encode seq.
func New(seq int) string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the
		// clock so ids stay well-formed.
		binary.BigEndian.PutUint32(b[:], uint32(now().UnixNano()))
	}
	return fmt.Sprintf("%08x%08x%08x",
		uint32(now().Unix()),
		binary.BigEndian.Uint32(b[:]),
		uint32(seq),
	)
}

// Decode returns the sequence hint embedded in id.
func Decode(id string) (int, error) {
	if len(id) != Length {
		return 0, ErrInvalidLength
	}
	n, err := strconv.ParseUint(id[16:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("decode id %q: %w", id, err)
	}
	return int(n), nil
}

// Timestamp returns the creation time embedded in id.
func Timestamp(id string) (time.Time, error) {
	if len(id) != Length {
		return time.Time{}, ErrInvalidLength
	}
	secs, err := strconv.ParseUint(id[:8], 16, 32)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode id %q: %w", id, err)
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}
