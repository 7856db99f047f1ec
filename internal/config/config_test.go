package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalConfig = "auth:\n  credentials_file: ./credentials.yaml\n  region: us-east-1\n  service: files\n"

func TestLoadFileAppliesDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(minimalConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddr {
		t.Fatalf("unexpected listen address default: %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.MaxHeaderBytes != DefaultMaxHeader {
		t.Fatalf("unexpected max_header_bytes default: %d", cfg.Server.MaxHeaderBytes)
	}
	if cfg.Server.TrustProxyHeaders {
		t.Fatal("expected trust_proxy_headers default to false")
	}
	if cfg.Auth.VendorPrefix != DefaultVendorPrefix {
		t.Fatalf("unexpected vendor prefix default: %q", cfg.Auth.VendorPrefix)
	}
	if cfg.Auth.HashAlgo != DefaultHashAlgo {
		t.Fatalf("unexpected hash algo default: %q", cfg.Auth.HashAlgo)
	}
	if cfg.Auth.AuthHeaderName != DefaultAuthHeaderName || cfg.Auth.DateHeaderName != DefaultDateHeaderName {
		t.Fatalf("unexpected header name defaults: %q %q", cfg.Auth.AuthHeaderName, cfg.Auth.DateHeaderName)
	}
	if cfg.Auth.RequestType != DefaultRequestType {
		t.Fatalf("unexpected request type default: %q", cfg.Auth.RequestType)
	}
	if cfg.Health.PathLive != DefaultHealthLive {
		t.Fatalf("unexpected liveness default: %q", cfg.Health.PathLive)
	}
	if cfg.TLS.Mode != DefaultTLSMode {
		t.Fatalf("unexpected tls mode default: %q", cfg.TLS.Mode)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "server:\n  listen_address: 127.0.0.1:9900\n  log_format: json\n  trust_proxy_headers: true\n" +
		"auth:\n  credentials_file: ./credentials.yaml\n  region: eu-central-1\n  service: tokens\n  vendor_prefix: AWS4\n  hash_algo: sha512\n  auth_header_name: Authorization\n  date_header_name: X-Amz-Date\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:9900" || cfg.Server.LogFormat != "json" {
		t.Fatalf("server overrides not applied: %+v", cfg.Server)
	}
	if !cfg.Server.TrustProxyHeaders {
		t.Fatal("expected trust_proxy_headers to be true")
	}
	if cfg.Auth.VendorPrefix != "AWS4" || cfg.Auth.HashAlgo != "sha512" {
		t.Fatalf("auth overrides not applied: %+v", cfg.Auth)
	}
	if cfg.Auth.AuthHeaderName != "Authorization" || cfg.Auth.DateHeaderName != "X-Amz-Date" {
		t.Fatalf("header name overrides not applied: %+v", cfg.Auth)
	}
}

func TestValidateRejectsMissingAuthFields(t *testing.T) {
	t.Parallel()
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"auth.credentials_file", "auth.region", "auth.service"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad log format", func(c *Config) { c.Server.LogFormat = "xml" }, "server.log_format"},
		{"bad hash algo", func(c *Config) { c.Auth.HashAlgo = "md5" }, "auth.hash_algo"},
		{"lowercase vendor prefix", func(c *Config) { c.Auth.VendorPrefix = "ems" }, "auth.vendor_prefix"},
		{"zero max body", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"empty auth header", func(c *Config) { c.Auth.AuthHeaderName = "" }, "auth.auth_header_name"},
		{"empty date header", func(c *Config) { c.Auth.DateHeaderName = "" }, "auth.date_header_name"},
		{"empty request type", func(c *Config) { c.Auth.RequestType = "" }, "auth.request_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.CredentialsFile = "./credentials.yaml"
			cfg.Auth.Region = "us-east-1"
			cfg.Auth.Service = "files"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestValidateTLSManualRequiresFiles(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Auth.CredentialsFile = "./credentials.yaml"
	cfg.Auth.Region = "us-east-1"
	cfg.Auth.Service = "files"
	cfg.TLS.Enabled = true
	cfg.TLS.Mode = "manual"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "tls.cert_file") || !strings.Contains(err.Error(), "tls.key_file") {
		t.Fatalf("expected cert/key errors, got: %v", err)
	}
}

func TestValidateTLSRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Auth.CredentialsFile = "./credentials.yaml"
	cfg.Auth.Region = "us-east-1"
	cfg.Auth.Service = "files"
	cfg.TLS.Enabled = true
	cfg.TLS.Mode = "acme_dns"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "tls.mode") {
		t.Fatalf("expected tls.mode error, got: %v", err)
	}
}

func TestValidateHealthPaths(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Auth.CredentialsFile = "./credentials.yaml"
	cfg.Auth.Region = "us-east-1"
	cfg.Auth.Service = "files"
	cfg.Health.PathLive = "/same"
	cfg.Health.PathReady = "/same"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must be different") {
		t.Fatalf("expected health path error, got: %v", err)
	}
}

func TestLoadFileRejectsUnreadable(t *testing.T) {
	t.Parallel()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
