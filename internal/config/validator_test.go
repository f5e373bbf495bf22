package config

import (
	"strings"
	"testing"
)

func minimalValidConfig() *Config {
	cfg := &Config{
		Routes: []RouteConfig{
			{Host: "example.com", Backend: BackendConfig{Address: "127.0.0.1:9000"}},
		},
	}
	cfg.SetDefaults()
	return cfg
}

func TestValidateValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateBackendRequiresExactlyOneTarget(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Routes[0].Backend.Address = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for backend with neither address nor path")
	}
	if !strings.Contains(err.Error(), "exactly one") {
		t.Errorf("error = %q, want to mention 'exactly one'", err.Error())
	}
}

func TestValidateBackendRejectsBothTargets(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Routes[0].Backend.Path = "/var/run/hostgate/app.sock"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for backend with both address and path")
	}
}

func TestValidateBackendRejectsMalformedDialTimeout(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Routes[0].Backend.DialTimeout = "soon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for malformed dial_timeout")
	}
}

func TestValidateConditionRoutesCompilesExpression(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.ConditionRoutes = []ConditionRouteConfig{
		{
			Name:      "internal",
			Condition: `request.host.endsWith(".internal")`,
			Backend:   BackendConfig{Address: "127.0.0.1:9001"},
		},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateConditionRoutesRejectsBadExpression(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.ConditionRoutes = []ConditionRouteConfig{
		{
			Name:      "broken",
			Condition: `request.host.(((`,
			Backend:   BackendConfig{Address: "127.0.0.1:9001"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for malformed CEL expression")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error = %q, want to name the offending route", err.Error())
	}
}

func TestValidateAdminRejectsNonLoopbackWithoutToken(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Admin.ListenAddr = "0.0.0.0:9090"
	cfg.Admin.TokenHash = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for non-loopback admin bind without a token")
	}
	if !strings.Contains(err.Error(), "token_hash") {
		t.Errorf("error = %q, want to mention token_hash", err.Error())
	}
}

func TestValidateAdminAllowsNonLoopbackWithToken(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Admin.ListenAddr = "0.0.0.0:9090"
	cfg.Admin.TokenHash = "sha256:abc123"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateAdminDisabledSkipsBindingCheck(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Admin.Enabled = false
	cfg.Admin.ListenAddr = "0.0.0.0:9090"
	cfg.Admin.TokenHash = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingRouteHost(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Routes[0].Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing route host")
	}
}
