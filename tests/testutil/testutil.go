package testutil

import (
	"fmt"
	"net/url"
	"os"
	"testing"

	"github.com/kendall-kelly/artisan-marketplace-api/config"
)

// RequireTestEnvironment fails the test unless GO_ENV=test and any
// DATABASE_URL names a *_test database. Suites that touch a database call it
// first so a stray shell never points them at marketplace data.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("tests must run with GO_ENV=test, got %q", env)
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" && !config.IsTestDatabaseURL(raw) {
		t.Fatalf("DATABASE_URL %s is not a *_test database", redactDatabaseURL(raw))
	}
}

// MustSetTestEnvironment switches the process to GO_ENV=test
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
}

// PrintEnvironmentInfo prints what a suite is about to run against
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_URL: %s\n", redactDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  AWS_S3_BUCKET: %s\n", orNotSet(os.Getenv("AWS_S3_BUCKET")))
	fmt.Printf("  MEDIA_ROOT: %s\n", orNotSet(os.Getenv("MEDIA_ROOT")))
}

// redactDatabaseURL hides the password and flags databases that are not *_test
func redactDatabaseURL(raw string) string {
	switch raw {
	case "":
		return "(not set)"
	case ":memory:":
		return raw
	}
	shown := "(unparseable)"
	if u, err := url.Parse(raw); err == nil {
		shown = u.Redacted()
	}
	if !config.IsTestDatabaseURL(raw) {
		return shown + " [WARNING: not a test database]"
	}
	return shown
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
