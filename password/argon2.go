package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// MinSecretBytes is the shortest plaintext accepted for hashing.
	MinSecretBytes = 8
	// MaxSecretBytes caps plaintext length for both hashing and verification.
	MaxSecretBytes = 1024

	argon2Prefix = "$argon2id$"
	algorithmID  = "argon2id"
)

var (
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed credential hash")
	// ErrSecretLength is returned when a plaintext is outside the accepted length range.
	ErrSecretLength = errors.New("secret length out of range")
)

// Argon2Config holds Argon2id cost parameters.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the parameters used when none are configured.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks the cost parameters against the package minimums.
func (c Argon2Config) Validate() error {
	if c.Memory < minMemoryKB {
		return errors.New("argon2 memory must be >= 8192 KB")
	}
	if c.Time < minTimeCost {
		return errors.New("argon2 time must be >= 1")
	}
	if c.Parallelism < minParallelism {
		return errors.New("argon2 parallelism must be >= 1")
	}
	if c.SaltLength < minSaltLength {
		return errors.New("argon2 salt length must be >= 16")
	}
	if c.KeyLength < minKeyLength {
		return errors.New("argon2 key length must be >= 16")
	}
	return nil
}

// Argon2 hashes and verifies Argon2id PHC strings.
type Argon2 struct {
	config Argon2Config
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 returns an Argon2 hasher with validated parameters.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a PHC-encoded Argon2id hash from plaintext using a fresh salt.
// Plaintext bytes are used exactly as given.
func (a *Argon2) Hash(plaintext string) (string, error) {
	if err := checkLength(plaintext); err != nil {
		return "", err
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the stored parameters and compares in constant time.
func (a *Argon2) Verify(plaintext, encoded string) (bool, error) {
	if len(plaintext) > MaxSecretBytes {
		return false, ErrSecretLength
	}
	return verifyArgon2(plaintext, encoded)
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters than a.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	return a.config.Memory > parsed.memory ||
		a.config.Time > parsed.time ||
		a.config.Parallelism > parsed.parallelism ||
		a.config.KeyLength != uint32(len(parsed.hash)), nil
}

func verifyArgon2(plaintext, encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.hash)))
	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, ErrMalformedHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	parsed, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	parsed.salt, err = decodeSegment(parts[4])
	if err != nil || len(parsed.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	parsed.hash, err = decodeSegment(parts[5])
	if err != nil || len(parsed.hash) < int(minKeyLength) {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	return parsed, nil
}

// decodeSegment accepts padded and unpadded base64 so hashes produced by
// other Argon2id libraries verify too.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func parseParams(part string) (*parsedPHC, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, fmt.Errorf("%w: parameters", ErrMalformedHash)
	}

	var (
		memorySet, timeSet, parallelismSet bool
		parsed                             parsedPHC
	)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: parameter entry", ErrMalformedHash)
		}

		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, fmt.Errorf("%w: memory", ErrMalformedHash)
			}
			parsed.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, fmt.Errorf("%w: time", ErrMalformedHash)
			}
			parsed.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, fmt.Errorf("%w: parallelism", ErrMalformedHash)
			}
			parsed.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, fmt.Errorf("%w: unsupported parameter %q", ErrMalformedHash, key)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}
	return &parsed, nil
}

func checkLength(plaintext string) error {
	if len(plaintext) < MinSecretBytes || len(plaintext) > MaxSecretBytes {
		return ErrSecretLength
	}
	return nil
}
