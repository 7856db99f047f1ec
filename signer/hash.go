package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
)

// HashAlgo names one of the two hash families this scheme allows. The zero
// value is invalid; use HashSHA256 or HashSHA512.
type HashAlgo string

const (
	HashSHA256 HashAlgo = "sha256"
	HashSHA512 HashAlgo = "sha512"
)

// Valid reports whether a is one of the allowed algorithms.
func (a HashAlgo) Valid() bool {
	switch a {
	case HashSHA256, HashSHA512:
		return true
	default:
		return false
	}
}

// Tag returns the uppercase token used in the algorithm field of a signed
// request, e.g. "SHA256".
func (a HashAlgo) Tag() string {
	return strings.ToUpper(string(a))
}

// parseHashTag maps an uppercase algorithm token (as it appears on the wire)
// back to a HashAlgo. Only SHA256 and SHA512 are recognized; anything else
// returns false. This check runs on the verifying side; Client does not
// validate its configured HashAlgo.
func parseHashTag(tag string) (HashAlgo, bool) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "SHA256":
		return HashSHA256, true
	case "SHA512":
		return HashSHA512, true
	default:
		return "", false
	}
}

func (a HashAlgo) new() func() hash.Hash {
	switch a {
	case HashSHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

// sum returns the lowercase hex digest of value under this algorithm.
func (a HashAlgo) sum(value []byte) string {
	h := a.new()()
	h.Write(value)
	return hex.EncodeToString(h.Sum(nil))
}

// hmacSum returns the raw HMAC of value keyed by key under this algorithm.
func (a HashAlgo) hmacSum(key, value []byte) []byte {
	mac := hmac.New(a.new(), key)
	mac.Write(value)
	return mac.Sum(nil)
}

// hmacHex returns the lowercase hex HMAC of value keyed by key.
func (a HashAlgo) hmacHex(key, value []byte) string {
	return hex.EncodeToString(a.hmacSum(key, value))
}
