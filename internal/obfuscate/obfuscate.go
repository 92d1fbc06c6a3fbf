// Package obfuscate wraps response payloads so they are not readable JSON on the wire.
//
// A payload is marshaled to JSON, encoded with standard Base64, and then one
// random lowercase letter is inserted after the second character. Clients drop
// the character at index 2 and Base64-decode the rest. There is no integrity
// protection; this only defeats casual scraping.
package obfuscate

import (
	"encoding/base64"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/goccy/go-json"
)

const insertAt = 2

var ErrTooShort = errors.New("obfuscate: encoded payload too short")

type Encoder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns an Encoder drawing noise letters from src, or from the
// runtime's global source when src is nil.
func New(src rand.Source) *Encoder {
	e := &Encoder{}
	if src != nil {
		e.rng = rand.New(src)
	}
	return e
}

func (e *Encoder) letter() byte {
	if e.rng == nil {
		return byte('a' + rand.IntN(26))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return byte('a' + e.rng.IntN(26))
}

// Encode marshals v and returns the obfuscated string.
func (e *Encoder) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return e.Wrap(b), nil
}

// Wrap obfuscates an already serialized payload.
func (e *Encoder) Wrap(payload []byte) string {
	enc := base64.StdEncoding.EncodeToString(payload)
	if len(enc) < insertAt {
		return enc
	}
	out := make([]byte, 0, len(enc)+1)
	out = append(out, enc[:insertAt]...)
	out = append(out, e.letter())
	out = append(out, enc[insertAt:]...)
	return string(out)
}

// Unwrap reverses Wrap.
func Unwrap(s string) ([]byte, error) {
	if len(s) <= insertAt {
		return nil, ErrTooShort
	}
	return base64.StdEncoding.DecodeString(s[:insertAt] + s[insertAt+1:])
}

// Decode reverses Encode into v.
func Decode(s string, v any) error {
	b, err := Unwrap(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
