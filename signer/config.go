package signer

const (
	DefaultVendorPrefix   = "EMS"
	DefaultHashAlgo       = HashSHA256
	DefaultAuthHeaderName = "X-Ems-Auth"
	DefaultDateHeaderName = "X-Ems-Date"

	// headerModeExpiry is the fixed freshness window (seconds) applied to
	// header-signed requests, which carry no explicit expiry.
	headerModeExpiry = 900
	// forwardDriftAllowance bounds how far a request's declared timestamp
	// may sit in the future of the server clock, regardless of mode.
	forwardDriftAllowance = 900
)

// ClientConfig configures a signing client: the credential it signs with
// and the wire conventions it follows.
type ClientConfig struct {
	SecretKey      string
	AccessKeyID    string
	Party          Party
	VendorPrefix   string
	HashAlgo       HashAlgo
	AuthHeaderName string
	DateHeaderName string
}

// withDefaults fills in the optional fields of a ClientConfig.
func (c ClientConfig) withDefaults() ClientConfig {
	if c.VendorPrefix == "" {
		c.VendorPrefix = DefaultVendorPrefix
	}
	if c.HashAlgo == "" {
		c.HashAlgo = DefaultHashAlgo
	}
	if c.AuthHeaderName == "" {
		c.AuthHeaderName = DefaultAuthHeaderName
	}
	if c.DateHeaderName == "" {
		c.DateHeaderName = DefaultDateHeaderName
	}
	return c
}

// KeyLookup resolves an access key id to its secret. It returns ok=false
// when the access key id is unknown. Implementations may be backed by a
// map, a cache, or a remote service; the library makes no assumption
// beyond "same input, same output" and places no thread-safety requirement
// of its own. That responsibility belongs to the caller's implementation.
type KeyLookup func(accessKeyID string) (secret string, ok bool)

// ServerConfig configures a Verifier.
type ServerConfig struct {
	Party          Party
	KeyLookup      KeyLookup
	VendorPrefix   string
	AuthHeaderName string
	DateHeaderName string
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.VendorPrefix == "" {
		c.VendorPrefix = DefaultVendorPrefix
	}
	if c.AuthHeaderName == "" {
		c.AuthHeaderName = DefaultAuthHeaderName
	}
	if c.DateHeaderName == "" {
		c.DateHeaderName = DefaultDateHeaderName
	}
	return c
}
