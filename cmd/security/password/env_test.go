package password

import (
	"os"
	"testing"
)

// unsetEnv removes key for the duration of the test. t.Setenv records the
// previous value so it is restored on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}
