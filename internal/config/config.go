package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr  = "0.0.0.0:8700"
	DefaultLogFormat   = "text"
	DefaultMaxBody     = int64(8 * 1024 * 1024)
	DefaultMaxHeader   = 1 << 20 // 1 MiB
	DefaultHealthLive  = "/healthz"
	DefaultHealthReady = "/readyz"
	DefaultTLSMode     = "self_signed"

	DefaultVendorPrefix   = "EMS"
	DefaultHashAlgo       = "sha256"
	DefaultAuthHeaderName = "X-Ems-Auth"
	DefaultDateHeaderName = "X-Ems-Date"
	DefaultRequestType    = "ems_request"
)

var allowedTLSModes = map[string]struct{}{
	"self_signed": {},
	"manual":      {},
}

var allowedHashAlgos = map[string]struct{}{
	"sha256": {},
	"sha512": {},
}

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
	TLS    TLS    `yaml:"tls"`
	Health Health `yaml:"health"`
}

type Server struct {
	ListenAddress     string `yaml:"listen_address"`
	LogFormat         string `yaml:"log_format"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	MaxHeaderBytes    int    `yaml:"max_header_bytes"`
	TrustProxyHeaders bool   `yaml:"trust_proxy_headers"`
}

type Auth struct {
	CredentialsFile string `yaml:"credentials_file"`
	Region          string `yaml:"region"`
	Service         string `yaml:"service"`
	RequestType     string `yaml:"request_type"`
	VendorPrefix    string `yaml:"vendor_prefix"`
	HashAlgo        string `yaml:"hash_algo"`
	AuthHeaderName  string `yaml:"auth_header_name"`
	DateHeaderName  string `yaml:"date_header_name"`
}

type TLS struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"`

	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	SelfSigned TLSSelfSigned `yaml:"self_signed"`
}

type TLSSelfSigned struct {
	CommonName string `yaml:"common_name"`
	ValidDays  int    `yaml:"valid_days"`
}

type Health struct {
	Enabled   bool   `yaml:"enabled"`
	PathLive  string `yaml:"path_live"`
	PathReady string `yaml:"path_ready"`
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddress:  DefaultListenAddr,
			LogFormat:      DefaultLogFormat,
			MaxBodyBytes:   DefaultMaxBody,
			MaxHeaderBytes: DefaultMaxHeader,
		},
		Auth: Auth{
			RequestType:    DefaultRequestType,
			VendorPrefix:   DefaultVendorPrefix,
			HashAlgo:       DefaultHashAlgo,
			AuthHeaderName: DefaultAuthHeaderName,
			DateHeaderName: DefaultDateHeaderName,
		},
		TLS: TLS{
			Mode: DefaultTLSMode,
			SelfSigned: TLSSelfSigned{
				CommonName: "localhost",
				ValidDays:  365,
			},
		},
		Health: Health{
			Enabled:   true,
			PathLive:  DefaultHealthLive,
			PathReady: DefaultHealthReady,
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.ListenAddress == "" {
		errs = append(errs, errors.New("config validation: server.listen_address is required"))
	}
	if c.Server.LogFormat != "text" && c.Server.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config validation: server.log_format must be one of [text json], got %q", c.Server.LogFormat))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("config validation: server.max_body_bytes must be > 0"))
	}
	if c.Server.MaxHeaderBytes <= 0 {
		errs = append(errs, errors.New("config validation: server.max_header_bytes must be > 0"))
	}

	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateTLS()...)
	errs = append(errs, c.validateHealth()...)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c Config) validateAuth() []error {
	var errs []error
	if c.Auth.CredentialsFile == "" {
		errs = append(errs, errors.New("config validation: auth.credentials_file is required"))
	}
	if c.Auth.Region == "" {
		errs = append(errs, errors.New("config validation: auth.region is required"))
	}
	if c.Auth.Service == "" {
		errs = append(errs, errors.New("config validation: auth.service is required"))
	}
	if c.Auth.RequestType == "" {
		errs = append(errs, errors.New("config validation: auth.request_type is required"))
	}
	if c.Auth.VendorPrefix == "" {
		errs = append(errs, errors.New("config validation: auth.vendor_prefix is required"))
	} else if !isVendorPrefix(c.Auth.VendorPrefix) {
		errs = append(errs, fmt.Errorf("config validation: auth.vendor_prefix must be uppercase letters and digits, got %q", c.Auth.VendorPrefix))
	}
	if _, ok := allowedHashAlgos[c.Auth.HashAlgo]; !ok {
		errs = append(errs, fmt.Errorf("config validation: auth.hash_algo must be one of [sha256 sha512], got %q", c.Auth.HashAlgo))
	}
	if c.Auth.AuthHeaderName == "" {
		errs = append(errs, errors.New("config validation: auth.auth_header_name is required"))
	}
	if c.Auth.DateHeaderName == "" {
		errs = append(errs, errors.New("config validation: auth.date_header_name is required"))
	}
	return errs
}

func (c Config) validateTLS() []error {
	var errs []error
	if !c.TLS.Enabled {
		return errs
	}

	if _, ok := allowedTLSModes[c.TLS.Mode]; !ok {
		errs = append(errs, fmt.Errorf("config validation: tls.mode must be one of [self_signed manual], got %q", c.TLS.Mode))
		return errs
	}

	switch c.TLS.Mode {
	case "manual":
		if c.TLS.CertFile == "" {
			errs = append(errs, errors.New("config validation: tls.cert_file is required when tls.mode=manual"))
		}
		if c.TLS.KeyFile == "" {
			errs = append(errs, errors.New("config validation: tls.key_file is required when tls.mode=manual"))
		}
		if c.TLS.CertFile != "" {
			if statErr := validateReadableFile(c.TLS.CertFile); statErr != nil {
				errs = append(errs, fmt.Errorf("config validation: tls.cert_file: %w", statErr))
			}
		}
		if c.TLS.KeyFile != "" {
			if statErr := validateReadableFile(c.TLS.KeyFile); statErr != nil {
				errs = append(errs, fmt.Errorf("config validation: tls.key_file: %w", statErr))
			}
		}
	case "self_signed":
		if c.TLS.SelfSigned.CommonName == "" {
			errs = append(errs, errors.New("config validation: tls.self_signed.common_name is required when tls.mode=self_signed"))
		}
		if c.TLS.SelfSigned.ValidDays <= 0 {
			errs = append(errs, errors.New("config validation: tls.self_signed.valid_days must be > 0 when tls.mode=self_signed"))
		}
	}

	return errs
}

func (c Config) validateHealth() []error {
	if !c.Health.Enabled {
		return nil
	}
	var errs []error
	if c.Health.PathLive == "" {
		errs = append(errs, errors.New("config validation: health.path_live is required when health.enabled=true"))
	} else if c.Health.PathLive[0] != '/' {
		errs = append(errs, errors.New("config validation: health.path_live must start with '/'"))
	}
	if c.Health.PathReady == "" {
		errs = append(errs, errors.New("config validation: health.path_ready is required when health.enabled=true"))
	} else if c.Health.PathReady[0] != '/' {
		errs = append(errs, errors.New("config validation: health.path_ready must start with '/'"))
	}
	if c.Health.PathLive == c.Health.PathReady {
		errs = append(errs, errors.New("config validation: health.path_live and health.path_ready must be different"))
	}
	return errs
}

func isVendorPrefix(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func validateReadableFile(path string) error {
	cleaned := filepath.Clean(path)
	info, err := os.Stat(cleaned)
	if err != nil {
		return fmt.Errorf("%q is not readable: %w", cleaned, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%q points to a directory", cleaned)
	}
	return nil
}
