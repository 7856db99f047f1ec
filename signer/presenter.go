package signer

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UnsignedPayload is the literal sentinel used as the payload hash input
// for presigned GET requests, which carry no body to hash.
const UnsignedPayload = "UNSIGNED-PAYLOAD"

var presignQuerySuffixes = []string{"Algorithm", "Credentials", "Date", "Expires", "SignedHeaders", "Signature"}

// isPresignQueryParam reports whether key is one of the six recognized
// X-<vendor>-* presign parameters for vendorPrefix.
func isPresignQueryParam(key, vendorPrefix string) bool {
	prefix := "X-" + vendorPrefix + "-"
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	suffix := key[len(prefix):]
	for _, s := range presignQuerySuffixes {
		if s == suffix {
			return true
		}
	}
	return false
}

// stripPresignParams removes every recognized X-<vendor>-* pair from a raw
// query string, leaving the remaining pairs untouched and in order.
func stripPresignParams(rawQuery, vendorPrefix string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		if isPresignQueryParam(key, vendorPrefix) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// appendQueryParam appends key=value to a raw query string. The key is
// written literally; the value is percent-encoded.
func appendQueryParam(rawQuery, key, value string) string {
	pair := key + "=" + rfc3986Encode(value)
	if rawQuery == "" {
		return pair
	}
	return rawQuery + "&" + pair
}

// Client signs outgoing requests with one fixed credential.
type Client struct {
	cfg   ClientConfig
	cache *DerivedKeyCache
}

// NewClient returns a Client for cfg, filling in unset optional fields with
// their defaults.
func NewClient(cfg ClientConfig) *Client {
	return &Client{cfg: cfg.withDefaults(), cache: NewDerivedKeyCache()}
}

func (c *Client) signingKey(shortDate string) []byte {
	return c.cache.Derive(c.cfg.SecretKey, c.cfg.Party.FullScope(shortDate), c.cfg.HashAlgo, c.cfg.VendorPrefix)
}

// SignHeaders returns headers augmented with the date header, Host, and the
// authorization header, ready to send alongside method/url/body.
func (c *Client) SignHeaders(method, rawURL string, body []byte, headers map[string][]string, headersToSign []string, date time.Time) (map[string][]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	signed := sortedSignedHeaders(append([]string{"host", c.cfg.DateHeaderName}, headersToSign...))

	shortDate := date.UTC().Format(ShortDateFormat)
	longDate := date.UTC().Format(LongDateFormat)

	merged := make(map[string][]string, len(headers)+2)
	for k, v := range headers {
		merged[strings.ToLower(k)] = v
	}
	merged["host"] = []string{u.Host}
	merged[strings.ToLower(c.cfg.DateHeaderName)] = []string{longDate}

	canonical := BuildCanonicalRequest(method, u.EscapedPath(), u.RawQuery, merged, signed, body, c.cfg.HashAlgo)
	stringToSign := StringToSign(c.cfg.Party, canonical, date, c.cfg.HashAlgo, c.cfg.VendorPrefix)
	signature := Signature(stringToSign, c.signingKey(shortDate), c.cfg.HashAlgo)

	authValue := c.cfg.VendorPrefix + "-HMAC-" + c.cfg.HashAlgo.Tag() +
		" Credential=" + credentialsField(c.cfg.AccessKeyID, c.cfg.Party, shortDate) +
		", SignedHeaders=" + strings.Join(signed, ";") +
		", Signature=" + signature

	out := make(map[string][]string, len(merged)+1)
	for k, v := range merged {
		out[k] = v
	}
	out[strings.ToLower(c.cfg.AuthHeaderName)] = []string{authValue}
	return out, nil
}

// SignURL returns rawURL with the six X-<vendor>-* presigned query
// parameters appended. Method is always GET; the payload hash input is the
// UnsignedPayload sentinel. The five non-signature parameters are part of
// the query that gets signed; only the trailing Signature parameter sits
// outside the signed bytes.
func (c *Client) SignURL(rawURL string, date time.Time, expires time.Duration, headers map[string][]string, headersToSign []string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	signed := sortedSignedHeaders(append([]string{"host"}, headersToSign...))

	shortDate := date.UTC().Format(ShortDateFormat)
	longDate := date.UTC().Format(LongDateFormat)
	credential := credentialsField(c.cfg.AccessKeyID, c.cfg.Party, shortDate)

	merged := map[string][]string{"host": {u.Host}}
	for k, v := range headers {
		merged[strings.ToLower(k)] = v
	}

	signedQuery := stripPresignParams(u.RawQuery, c.cfg.VendorPrefix)
	signedQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-Algorithm", c.cfg.VendorPrefix+"-HMAC-"+c.cfg.HashAlgo.Tag())
	signedQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-Credentials", credential)
	signedQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-Date", longDate)
	signedQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-Expires", strconv.Itoa(int(expires/time.Second)))
	signedQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-SignedHeaders", strings.Join(signed, ";"))

	canonical := BuildCanonicalRequest(http.MethodGet, u.EscapedPath(), signedQuery, merged, signed, []byte(UnsignedPayload), c.cfg.HashAlgo)
	stringToSign := StringToSign(c.cfg.Party, canonical, date, c.cfg.HashAlgo, c.cfg.VendorPrefix)
	signature := Signature(stringToSign, c.signingKey(shortDate), c.cfg.HashAlgo)

	u.RawQuery = appendQueryParam(signedQuery, "X-"+c.cfg.VendorPrefix+"-Signature", signature)
	return u.String(), nil
}
