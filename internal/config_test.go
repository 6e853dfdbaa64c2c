package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Scans.Encoding != "cp1252" {
		t.Errorf("default encoding = %q, want cp1252", cfg.Scans.Encoding)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("default address = %q, want :8080", cfg.App.HTTP.Address())
	}
}

func TestScansConfig_KnownEncodings(t *testing.T) {
	for _, enc := range []string{"", "cp1252", "windows-1252", "latin1", "iso-8859-1", "utf-8"} {
		cfg := ScansConfig{Path: "./scans", Encoding: enc}
		if err := cfg.Validate(); err != nil {
			t.Errorf("encoding %q should validate: %v", enc, err)
		}
	}
}

func TestScansConfig_UnknownEncoding(t *testing.T) {
	cfg := ScansConfig{Path: "./scans", Encoding: "ebcdic"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown encoding should fail validation")
	}
}

func TestScansConfig_PathRequired(t *testing.T) {
	cfg := ScansConfig{Path: "", Encoding: "cp1252"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty scans path should fail validation")
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
