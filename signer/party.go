package signer

import (
	"fmt"
	"strings"
)

// Party is the immutable (region, service, requestType) triple that scopes
// every credential issued against it. It is created once at configuration
// time and never mutated.
type Party struct {
	Region      string
	Service     string
	RequestType string
}

// Scope joins the static part of the credential scope: region/service/requestType.
func (p Party) Scope() string {
	return strings.Join([]string{p.Region, p.Service, p.RequestType}, "/")
}

// FullScope joins shortDate onto the static scope: shortDate/region/service/requestType.
func (p Party) FullScope(shortDate string) string {
	return shortDate + "/" + p.Scope()
}

// Equal reports whether scope matches this party's region, service, and
// request type.
func (p Party) Equal(scope CredentialScope) bool {
	return p.Region == scope.Region && p.Service == scope.Service && p.RequestType == scope.RequestType
}

// CredentialScope is the parsed form of a five-part credential string:
// accessKeyId/shortDate/region/service/requestType.
type CredentialScope struct {
	AccessKeyID string
	ShortDate   string
	Region      string
	Service     string
	RequestType string
}

// String renders the five-part credential string.
func (c CredentialScope) String() string {
	return strings.Join([]string{c.AccessKeyID, c.ShortDate, c.Region, c.Service, c.RequestType}, "/")
}

// parseCredentialScope splits a raw credential string into its five parts.
// It fails unless there are exactly five non-empty parts.
func parseCredentialScope(raw string) (CredentialScope, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 5 {
		return CredentialScope{}, newError(KindInvalidCredentialScope, "Invalid credential scope")
	}
	for _, p := range parts {
		if p == "" {
			return CredentialScope{}, newError(KindInvalidCredentialScope, "Invalid credential scope")
		}
	}
	return CredentialScope{
		AccessKeyID: parts[0],
		ShortDate:   parts[1],
		Region:      parts[2],
		Service:     parts[3],
		RequestType: parts[4],
	}, nil
}

// credentialsField renders accessKeyId/fullCredentialScope for embedding in
// the Credential= field or the X-<vendor>-Credentials parameter.
func credentialsField(accessKeyID string, party Party, shortDate string) string {
	return fmt.Sprintf("%s/%s", accessKeyID, party.FullScope(shortDate))
}
