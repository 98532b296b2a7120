package internal

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.Mode != ModeStdio {
		t.Errorf("mode = %s, want stdio", cfg.App.Mode)
	}
	if len(cfg.GitHub.ExcludedFolders) == 0 {
		t.Error("default excluded folders must not be empty")
	}
}

func TestConfigRejectsUnknownMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown mode")
	}
}

func TestConfigRequiresRepoIdentity(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.GitHub.Owner = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing owner")
	}
}

func TestConfigAllowsMissingToken(t *testing.T) {
	// A missing token is a lazy configuration error, never a startup one.
	cfg := NewDefaultConfig()
	cfg.GitHub.Token = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("missing token must not fail validation: %v", err)
	}
}

func TestAuthTokenModeRequiresToken(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	if err := cfg.Validate(); err == nil {
		t.Error("token mode without a token must fail validation")
	}
	cfg.Auth.Token = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("token mode with token must validate: %v", err)
	}
	if !cfg.Auth.AuthEnabled() {
		t.Error("AuthEnabled must be true in token mode")
	}
}

func TestHTTPPortBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 must fail validation")
	}
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("port above 65535 must fail validation")
	}
}
