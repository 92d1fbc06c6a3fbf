package obfuscate

import (
	"encoding/base64"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Page    int      `json:"page"`
	PerPage int      `json:"perPage"`
	Data    []string `json:"data"`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := New(nil)
	in := envelope{Page: 2, PerPage: 900, Data: []string{"a", "Ünïcode", ""}}

	s, err := e.Encode(in)
	require.NoError(t, err)

	var out envelope
	require.NoError(t, Decode(s, &out))
	assert.Equal(t, in, out)
}

func TestEncodedLengthIsBase64PlusOne(t *testing.T) {
	e := New(rand.NewPCG(1, 2))
	for _, payload := range []string{`{}`, `{"a":1}`, `[1,2,3,4,5,6,7,8,9]`, `"x"`} {
		s := e.Wrap([]byte(payload))
		assert.Len(t, s, base64.StdEncoding.EncodedLen(len(payload))+1, payload)

		c := s[insertAt]
		assert.True(t, c >= 'a' && c <= 'z', "noise %q is not a lowercase letter", c)

		plain, err := Unwrap(s)
		require.NoError(t, err)
		assert.Equal(t, payload, string(plain))
	}
}

func TestFieldOrderIsStable(t *testing.T) {
	e := New(nil)
	s, err := e.Encode(envelope{Page: 1, PerPage: 24, Data: []string{}})
	require.NoError(t, err)

	plain, err := Unwrap(s)
	require.NoError(t, err)
	assert.Equal(t, `{"page":1,"perPage":24,"data":[]}`, string(plain))
}

func TestNoiseVaries(t *testing.T) {
	e := New(rand.NewPCG(42, 42))
	seen := map[byte]bool{}
	for i := 0; i < 200; i++ {
		seen[e.Wrap([]byte("payload"))[insertAt]] = true
	}
	assert.Greater(t, len(seen), 5)
}

func TestUnwrapRejectsShortInput(t *testing.T) {
	_, err := Unwrap("ab")
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = Unwrap("ab*!!")
	assert.Error(t, err)
}
