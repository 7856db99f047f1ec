package signer

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ParseAuthorizationHeader extracts AuthElements from the raw value of the
// configured authorization header. vendorPrefix must match the prefix the
// value was signed with.
func ParseAuthorizationHeader(value, vendorPrefix string) (AuthElements, error) {
	pattern := regexp.MustCompile(
		`^` + regexp.QuoteMeta(vendorPrefix) + `-HMAC-([A-Z0-9,]+) Credential=([A-Za-z0-9/_-]+), SignedHeaders=([a-z;-]+), Signature=([0-9a-f]+)$`,
	)
	match := pattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return AuthElements{}, newError(KindMalformedHeader, "Could not parse authorization header.")
	}

	algo, ok := parseHashTag(match[1])
	credential, err := parseCredentialScope(match[2])
	if err != nil {
		return AuthElements{}, err
	}

	elements := AuthElements{
		Mode:          AuthModeHeader,
		RawCredential: match[2],
		Credential:    credential,
		SignedHeaders: strings.Split(match[3], ";"),
		Signature:     match[4],
	}
	if ok {
		elements.Algorithm = algo
	}
	return elements, nil
}

// ParseQuerySignature extracts AuthElements from presigned query
// parameters. It requires every X-<vendor>-<Name> parameter to be present.
func ParseQuerySignature(query url.Values, vendorPrefix string) (AuthElements, error) {
	get := func(name string) (string, error) {
		key := "X-" + vendorPrefix + "-" + name
		value := query.Get(key)
		if value == "" {
			return "", newError(KindMissingQueryParam, "Missing query parameter: "+key)
		}
		return value, nil
	}

	algorithmRaw, err := get("Algorithm")
	if err != nil {
		return AuthElements{}, err
	}
	credentialsRaw, err := get("Credentials")
	if err != nil {
		return AuthElements{}, err
	}
	dateRaw, err := get("Date")
	if err != nil {
		return AuthElements{}, err
	}
	expiresRaw, err := get("Expires")
	if err != nil {
		return AuthElements{}, err
	}
	signedHeadersRaw, err := get("SignedHeaders")
	if err != nil {
		return AuthElements{}, err
	}
	signatureRaw, err := get("Signature")
	if err != nil {
		return AuthElements{}, err
	}

	algoPattern := regexp.MustCompile(`^` + regexp.QuoteMeta(vendorPrefix) + `-HMAC-([A-Z0-9,]+)$`)
	match := algoPattern.FindStringSubmatch(algorithmRaw)
	if match == nil {
		return AuthElements{}, newError(KindMalformedHeader, "Could not parse authorization header.")
	}
	algo, _ := parseHashTag(match[1])

	credential, err := parseCredentialScope(credentialsRaw)
	if err != nil {
		return AuthElements{}, err
	}

	expires, convErr := strconv.Atoi(expiresRaw)
	if convErr != nil || expires < 0 {
		return AuthElements{}, newError(KindMissingQueryParam, fmt.Sprintf("Missing query parameter: X-%s-Expires", vendorPrefix))
	}

	return AuthElements{
		Mode:           AuthModeQuery,
		Algorithm:      algo,
		RawCredential:  credentialsRaw,
		Credential:     credential,
		SignedHeaders:  strings.Split(signedHeadersRaw, ";"),
		Signature:      signatureRaw,
		RequestTime:    dateRaw,
		ExpiresSeconds: expires,
	}, nil
}
