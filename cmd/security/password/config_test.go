package password

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	for _, s := range envSettings {
		unsetEnv(t, s.key)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Policy != def.Policy || cfg.Params != def.Params {
		t.Fatalf("got %+v, want %+v", cfg, def)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("NOTES_PASSWORD_MIN_LEN", "10")
	t.Setenv("NOTES_PASSWORD_MAX_LEN", "200")
	t.Setenv("NOTES_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("NOTES_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("NOTES_ARGON2_ITERATIONS", "4")
	t.Setenv("NOTES_ARGON2_PARALLELISM", "2")
	t.Setenv("NOTES_ARGON2_SALT_LEN", "24")
	t.Setenv("NOTES_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	want := Config{
		Params: Argon2idParams{MemoryKiB: 32768, Iterations: 4, Parallelism: 2, SaltLength: 24, KeyLength: 32},
		Policy: Policy{MinLength: 10, MaxLength: 200, RejectVeryWeak: true},
	}
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"NOTES_PASSWORD_MIN_LEN":          "zero",
		"NOTES_ARGON2_MEMORY_KIB":         "1",
		"NOTES_ARGON2_SALT_LEN":           "4",
		"NOTES_ARGON2_PARALLELISM":        "300",
		"NOTES_PASSWORD_REJECT_VERY_WEAK": "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestFromEnv_MinAboveMax(t *testing.T) {
	t.Setenv("NOTES_PASSWORD_MIN_LEN", "50")
	t.Setenv("NOTES_PASSWORD_MAX_LEN", "20")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error")
	}
}
