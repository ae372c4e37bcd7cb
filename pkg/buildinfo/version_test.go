package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplateAndUserAgent(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = old })

	if got := UserAgent(); got != "cardsmith/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := Template(); !strings.Contains(got, "version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
}
