package signer

import (
	"crypto/subtle"
	"regexp"
	"strings"
	"time"
)

var longDatePattern = regexp.MustCompile(`^\d{8}T\d{6}Z$`)

// Verifier authenticates incoming requests against a configured Party and
// key lookup. A Verifier holds no per-request state; Authenticate runs the
// full check pipeline from scratch on each call and is safe to call
// concurrently.
type Verifier struct {
	cfg   ServerConfig
	cache *DerivedKeyCache
}

// NewVerifier returns a Verifier for cfg, filling in unset optional fields
// with their defaults.
func NewVerifier(cfg ServerConfig) *Verifier {
	return &Verifier{cfg: cfg.withDefaults(), cache: NewDerivedKeyCache()}
}

// Authenticate runs the ordered verification pipeline against req, using
// now as the server-side timestamp. It returns the authenticated access
// key id, or a *Error describing which check failed.
func (v *Verifier) Authenticate(req RequestView, now time.Time) (string, error) {
	elements, err := v.extractAuthElements(req)
	if err != nil {
		return "", err
	}

	if err := checkMandatorySignedHeaders(elements, v.cfg.DateHeaderName); err != nil {
		return "", err
	}
	if !elements.Algorithm.Valid() {
		return "", newError(KindDisallowedAlgorithm, "Only SHA256 and SHA512 hash algorithms are allowed.")
	}
	if err := checkDate(elements, now); err != nil {
		return "", err
	}
	if err := checkHost(req, elements); err != nil {
		return "", err
	}
	if !v.cfg.Party.Equal(elements.Credential) {
		return "", newError(KindInvalidCredentials, "Invalid credentials")
	}

	secret, ok := v.cfg.KeyLookup(elements.Credential.AccessKeyID)
	if !ok {
		return "", newError(KindInvalidAccessKey, "Invalid access key id")
	}

	expected := v.recomputeSignature(req, elements, secret)
	if !constantTimeEqualHex(expected, elements.Signature) {
		return "", newError(KindSignatureMismatch, "The signatures do not match")
	}

	return elements.Credential.AccessKeyID, nil
}

func (v *Verifier) extractAuthElements(req RequestView) (AuthElements, error) {
	authHeaderValues := req.Header(v.cfg.AuthHeaderName)
	if len(authHeaderValues) > 0 && strings.TrimSpace(authHeaderValues[0]) != "" {
		elements, err := ParseAuthorizationHeader(authHeaderValues[0], v.cfg.VendorPrefix)
		if err != nil {
			return AuthElements{}, err
		}
		if dateValues := req.Header(v.cfg.DateHeaderName); len(dateValues) > 0 {
			elements.RequestTime = dateValues[0]
		} else {
			return AuthElements{}, newError(KindMissingDateHeader, "The "+v.cfg.DateHeaderName+" header is missing")
		}
		host, err := requireHost(req)
		if err != nil {
			return AuthElements{}, err
		}
		elements.Host = host
		return elements, nil
	}

	_, rawQuery := requestURIParts(req.RequestURI())
	query := parseQueryValues(rawQuery)
	if req.Method() == "GET" && query.Get("X-"+v.cfg.VendorPrefix+"-Signature") != "" {
		elements, err := ParseQuerySignature(query, v.cfg.VendorPrefix)
		if err != nil {
			return AuthElements{}, err
		}
		host, err := requireHost(req)
		if err != nil {
			return AuthElements{}, err
		}
		elements.Host = host
		return elements, nil
	}

	return AuthElements{}, newError(KindNotSigned, "Request has not been signed.")
}

func requireHost(req RequestView) (string, error) {
	values := req.Header("host")
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", newError(KindMissingHostHeader, "The Host header is missing")
	}
	return values[0], nil
}

func checkMandatorySignedHeaders(elements AuthElements, dateHeaderName string) error {
	if !elements.hasSignedHeader("host") {
		return newError(KindHostNotSigned, "Host header not signed")
	}
	if elements.Mode == AuthModeHeader && !elements.hasSignedHeader(strings.ToLower(dateHeaderName)) {
		return newError(KindDateNotSigned, "Date header not signed")
	}
	return nil
}

func checkDate(elements AuthElements, now time.Time) error {
	if !longDatePattern.MatchString(elements.RequestTime) {
		return newError(KindInvalidDate, "Invalid request date.")
	}
	if elements.RequestTime[:8] != elements.Credential.ShortDate {
		return newError(KindDateMismatch, "The request date and credential date do not match.")
	}

	requestTime, err := time.Parse(LongDateFormat, elements.RequestTime)
	if err != nil {
		return newError(KindInvalidDate, "Invalid request date.")
	}

	skew := now.Sub(requestTime)
	if skew >= 0 {
		expiry := time.Duration(headerModeExpiry) * time.Second
		if elements.Mode == AuthModeQuery {
			expiry = time.Duration(elements.ExpiresSeconds) * time.Second
		}
		if skew <= expiry {
			return nil
		}
		return newError(KindDateOutOfRange, "Request date is not within the accepted time interval.")
	}

	if -skew <= time.Duration(forwardDriftAllowance)*time.Second {
		return nil
	}
	return newError(KindDateOutOfRange, "Request date is not within the accepted time interval.")
}

// checkHost compares the host the transport accepted the connection for
// against the Host header captured with the signature, so a client cannot
// replay a signature minted for one name against a proxy serving another.
func checkHost(req RequestView, elements AuthElements) error {
	scheme := req.Scheme()
	transportHost := normalizeHostPort(req.ServerName(), req.ServerPort(), scheme)
	signedHost := normalizeHostPort(hostOnly(elements.Host), portOf(elements.Host), scheme)

	if !strings.EqualFold(transportHost, signedHost) {
		return newError(KindHostMismatch, "The host header does not match.")
	}
	return nil
}

func hostOnly(hostport string) string {
	if idx := strings.LastIndex(hostport, ":"); idx >= 0 {
		return hostport[:idx]
	}
	return hostport
}

func portOf(hostport string) string {
	if idx := strings.LastIndex(hostport, ":"); idx >= 0 {
		return hostport[idx+1:]
	}
	return ""
}

// normalizeHostPort renders host[:port] for comparison, dropping the port
// when it is the default for scheme (80/http, 443/https).
func normalizeHostPort(host, port, scheme string) string {
	if port == "" {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return host
	}
	return host + ":" + port
}

// recomputeSignature rebuilds the signature the signer must have produced.
// In query mode the Signature parameter itself is dropped from the query
// before canonicalization, since the other five presign parameters were
// part of the bytes the signer hashed, and the payload is the
// UnsignedPayload sentinel instead of the request body.
func (v *Verifier) recomputeSignature(req RequestView, elements AuthElements, secret string) string {
	path, rawQuery := requestURIParts(req.RequestURI())

	var payload []byte
	if elements.Mode == AuthModeQuery {
		rawQuery = stripQueryParam(rawQuery, "X-"+v.cfg.VendorPrefix+"-Signature")
		payload = []byte(UnsignedPayload)
	} else {
		payload = req.Body()
	}

	headers := headerMap(req, elements.SignedHeaders)
	if hostValues := req.Header("host"); len(hostValues) > 0 {
		headers["host"] = hostValues
	}

	canonical := BuildCanonicalRequest(req.Method(), path, rawQuery, headers, elements.SignedHeaders, payload, elements.Algorithm)
	stringToSign := StringToSign(v.cfg.Party, canonical, mustParseLongDate(elements.RequestTime), elements.Algorithm, v.cfg.VendorPrefix)
	signingKey := v.cache.Derive(secret, v.cfg.Party.FullScope(elements.Credential.ShortDate), elements.Algorithm, v.cfg.VendorPrefix)
	return Signature(stringToSign, signingKey, elements.Algorithm)
}

// mustParseLongDate assumes checkDate already validated the format.
func mustParseLongDate(value string) time.Time {
	t, _ := time.Parse(LongDateFormat, value)
	return t
}

func stripQueryParam(rawQuery, name string) string {
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
		if key == name {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// constantTimeEqualHex compares two lowercase hex strings in constant time
// with respect to where they first differ.
func constantTimeEqualHex(expected, actual string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	actual = strings.ToLower(strings.TrimSpace(actual))
	if len(expected) == 0 || len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
