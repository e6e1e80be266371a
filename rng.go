package qucom

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"
)

// Source is the random stream used for measurement sampling. It is a ChaCha20
// keystream, keyed either from a seed for reproducible runs or from system entropy.
// Source satisfies math/rand/v2.Source.
type Source struct {
	stream *chacha20.Cipher
	buf    [8]byte
}

// NewSource returns a deterministic source. Equal seeds yield equal streams.
func NewSource(seed uint64) *Source {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	key := sha3.Sum256(b[:])
	return newSource(key[:])
}

// NewEntropySource returns a source keyed from crypto/rand.
func NewEntropySource() *Source {
	key := make([]byte, chacha20.KeySize)
	if _, err := rand.Read(key); err != nil {
		panic("qucom: reading entropy: " + err.Error())
	}
	return newSource(key)
}

func newSource(key []byte) *Source {
	nonce := make([]byte, chacha20.NonceSize)
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// key and nonce lengths are constants
		panic(err)
	}
	return &Source{stream: stream}
}

// Uint64 returns the next 64 bits of the keystream.
func (s *Source) Uint64() uint64 {
	clear(s.buf[:])
	s.stream.XORKeyStream(s.buf[:], s.buf[:])
	return binary.LittleEndian.Uint64(s.buf[:])
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}
