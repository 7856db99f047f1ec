package signer

import (
	"strings"
	"time"
)

// LongDateFormat is the YYYYMMDD'T'HHMMSS'Z' wire format for request
// timestamps.
const LongDateFormat = "20060102T150405Z"

// ShortDateFormat is the YYYYMMDD wire format embedded in credential scopes.
const ShortDateFormat = "20060102"

// StringToSign builds the four-line artifact that gets HMACed with the
// signing key: algorithm tag, long date, shortDate/scope, canonical request
// hash.
func StringToSign(scope Party, canonicalRequest string, date time.Time, algo HashAlgo, vendorPrefix string) string {
	shortDate := date.UTC().Format(ShortDateFormat)
	return strings.Join([]string{
		vendorPrefix + "-HMAC-" + algo.Tag(),
		date.UTC().Format(LongDateFormat),
		scope.FullScope(shortDate),
		algo.sum([]byte(canonicalRequest)),
	}, "\n")
}

// Signature returns the lowercase hex HMAC of stringToSign under signingKey.
func Signature(stringToSign string, signingKey []byte, algo HashAlgo) string {
	return algo.hmacHex(signingKey, []byte(stringToSign))
}
