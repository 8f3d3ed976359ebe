package testutils

import (
	"os"
	"runtime"
	"testing"
)

// RequireUnixNonRoot skips the test unless it runs on a Unix-like system without root privileges,
// where file permissions are enforced.
func RequireUnixNonRoot(t *testing.T) {
	t.Helper()

	if o := runtime.GOOS; o != "linux" && o != "darwin" {
		t.Skipf("Skipping: file permissions are not enforced on %s", o)
	}
	if os.Getuid() == 0 {
		t.Skip("Skipping: file permissions are not enforced for root")
	}
}
