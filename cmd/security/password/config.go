package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	minSaltLength = 8
	maxSaltLength = 64
	minKeyLength  = 16
	maxKeyLength  = 64
)

// Argon2idParams controls Argon2id cost. MemoryKiB is in KiB as argon2.IDKey
// expects.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds accepted plaintexts.
type Policy struct {
	MinLength      int
	MaxLength      int
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns interactive-login defaults: 64 MiB, 3 passes,
// parallelism clamped to [1..4]. The default policy only requires a
// non-empty password; length and strength rules are opt-in.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads < 1 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 1,
			MaxLength: 256,
		},
	}
}

type envSetting struct {
	key   string
	apply func(cfg *Config, raw string) error
}

var envSettings = []envSetting{
	{"NOTES_PASSWORD_MIN_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Policy.MinLength, err = parseInt(raw, 1, 1024)
		return err
	}},
	{"NOTES_PASSWORD_MAX_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Policy.MaxLength, err = parseInt(raw, 1, 4096)
		return err
	}},
	{"NOTES_PASSWORD_REJECT_VERY_WEAK", func(cfg *Config, raw string) (err error) {
		cfg.Policy.RejectVeryWeak, err = strconv.ParseBool(strings.TrimSpace(raw))
		return err
	}},
	{"NOTES_ARGON2_MEMORY_KIB", func(cfg *Config, raw string) (err error) {
		cfg.Params.MemoryKiB, err = parseUint32(raw, 8*1024, 1024*1024)
		return err
	}},
	{"NOTES_ARGON2_ITERATIONS", func(cfg *Config, raw string) (err error) {
		cfg.Params.Iterations, err = parseUint32(raw, 1, 20)
		return err
	}},
	{"NOTES_ARGON2_PARALLELISM", func(cfg *Config, raw string) error {
		n, err := parseUint32(raw, 1, math.MaxUint8)
		if err != nil {
			return err
		}
		cfg.Params.Parallelism = uint8(n) // #nosec G115 -- bounded by parseUint32.
		return nil
	}},
	{"NOTES_ARGON2_SALT_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Params.SaltLength, err = parseUint32(raw, minSaltLength, maxSaltLength)
		return err
	}},
	{"NOTES_ARGON2_KEY_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Params.KeyLength, err = parseUint32(raw, minKeyLength, maxKeyLength)
		return err
	}},
}

// FromEnv overlays NOTES_PASSWORD_* and NOTES_ARGON2_* variables on
// DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	for _, s := range envSettings {
		raw, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		if err := s.apply(&cfg, raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
	}
	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy: min length %d exceeds max length %d",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}

func parseInt(raw string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("out of range [%d..%d]", lo, hi)
	}
	return n, nil
}

func parseUint32(raw string, lo, hi uint32) (uint32, error) {
	u, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	n := uint32(u)
	if n < lo || n > hi {
		return 0, fmt.Errorf("out of range [%d..%d]", lo, hi)
	}
	return n, nil
}
