package migrate

import (
	"strings"
	"testing"
)

func TestRunRequiresDSN(t *testing.T) {
	if err := Run("", "up"); err == nil {
		t.Fatal("Run must fail with an empty dsn")
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	err := Run("postgres://localhost/db", "sideways")
	if err == nil {
		t.Fatal("Run must reject an unknown direction")
	}
	if !strings.Contains(err.Error(), "sideways") {
		t.Fatalf("error should name the bad direction, got %v", err)
	}
}
