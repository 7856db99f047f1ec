package signer

import (
	"errors"
	"net/url"
	"testing"
)

const sampleAuthHeader = "EMS-HMAC-SHA256 Credential=AKIDEXAMPLE/20110909/us-east-1/iam/aws4_request, SignedHeaders=content-type;host;x-ems-date, Signature=f36c21c6e16a71a6e8dc56673ad6354aeef49c577a22fd58a190b5fcf8891dbd"

func TestParseAuthorizationHeader(t *testing.T) {
	t.Parallel()
	elements, err := ParseAuthorizationHeader(sampleAuthHeader, "EMS")
	if err != nil {
		t.Fatalf("ParseAuthorizationHeader error: %v", err)
	}
	if elements.Mode != AuthModeHeader {
		t.Fatalf("mode: %q", elements.Mode)
	}
	if elements.Algorithm != HashSHA256 {
		t.Fatalf("algorithm: %q", elements.Algorithm)
	}
	if elements.Credential.AccessKeyID != "AKIDEXAMPLE" || elements.Credential.ShortDate != "20110909" {
		t.Fatalf("credential: %+v", elements.Credential)
	}
	if len(elements.SignedHeaders) != 3 || elements.SignedHeaders[1] != "host" {
		t.Fatalf("signed headers: %v", elements.SignedHeaders)
	}
	if elements.Signature != "f36c21c6e16a71a6e8dc56673ad6354aeef49c577a22fd58a190b5fcf8891dbd" {
		t.Fatalf("signature: %q", elements.Signature)
	}
}

func TestParseAuthorizationHeaderMalformed(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, value string
	}{
		{"empty", ""},
		{"wrong vendor", "AWS4-HMAC-SHA256 Credential=a/b/c/d/e, SignedHeaders=host, Signature=abcdef"},
		{"missing credential", "EMS-HMAC-SHA256 SignedHeaders=host, Signature=abcdef"},
		{"uppercase hex", "EMS-HMAC-SHA256 Credential=a/b/c/d/e, SignedHeaders=host, Signature=ABCDEF"},
		{"uppercase signed header", "EMS-HMAC-SHA256 Credential=a/b/c/d/e, SignedHeaders=Host, Signature=abcdef"},
		{"no separator spaces", "EMS-HMAC-SHA256 Credential=a/b/c/d/e,SignedHeaders=host,Signature=abcdef"},
		{"trailing junk", sampleAuthHeader + " extra"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAuthorizationHeader(tc.value, "EMS")
			if err == nil {
				t.Fatalf("expected parse failure for %q", tc.value)
			}
			if err.Error() != "Could not parse authorization header." {
				t.Fatalf("error message: %q", err.Error())
			}
		})
	}
}

func TestParseAuthorizationHeaderCredentialScope(t *testing.T) {
	t.Parallel()
	_, err := ParseAuthorizationHeader("EMS-HMAC-SHA256 Credential=a/b/c/d, SignedHeaders=host, Signature=abcdef", "EMS")
	if err == nil || err.Error() != "Invalid credential scope" {
		t.Fatalf("expected credential scope error, got %v", err)
	}

	var sigErr *Error
	if !errors.As(err, &sigErr) || sigErr.Kind != KindInvalidCredentialScope {
		t.Fatalf("expected KindInvalidCredentialScope, got %v", err)
	}
}

func presignQuery() url.Values {
	return url.Values{
		"X-EMS-Algorithm":     {"EMS-HMAC-SHA256"},
		"X-EMS-Credentials":   {"th3K3y/20110511/us-east-1/host/aws4_request"},
		"X-EMS-Date":          {"20110511T120000Z"},
		"X-EMS-Expires":       {"123456"},
		"X-EMS-SignedHeaders": {"host"},
		"X-EMS-Signature":     {"fbc9dbb91670e84d04ad2ae7505f4f52ab3ff9e192b8233feeae57e9022c2b67"},
	}
}

func TestParseQuerySignature(t *testing.T) {
	t.Parallel()
	elements, err := ParseQuerySignature(presignQuery(), "EMS")
	if err != nil {
		t.Fatalf("ParseQuerySignature error: %v", err)
	}
	if elements.Mode != AuthModeQuery {
		t.Fatalf("mode: %q", elements.Mode)
	}
	if elements.ExpiresSeconds != 123456 {
		t.Fatalf("expires: %d", elements.ExpiresSeconds)
	}
	if elements.RequestTime != "20110511T120000Z" {
		t.Fatalf("request time: %q", elements.RequestTime)
	}
	if elements.Credential.AccessKeyID != "th3K3y" {
		t.Fatalf("access key: %q", elements.Credential.AccessKeyID)
	}
}

func TestParseQuerySignatureMissingParam(t *testing.T) {
	t.Parallel()
	for _, missing := range []string{"Algorithm", "Credentials", "Date", "Expires", "SignedHeaders", "Signature"} {
		t.Run(missing, func(t *testing.T) {
			q := presignQuery()
			q.Del("X-EMS-" + missing)
			_, err := ParseQuerySignature(q, "EMS")
			if err == nil {
				t.Fatal("expected error")
			}
			want := "Missing query parameter: X-EMS-" + missing
			if err.Error() != want {
				t.Fatalf("error message: %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestParseQuerySignatureBadAlgorithm(t *testing.T) {
	t.Parallel()
	q := presignQuery()
	q.Set("X-EMS-Algorithm", "HMAC-SHA256")
	if _, err := ParseQuerySignature(q, "EMS"); err == nil {
		t.Fatal("expected algorithm pattern failure")
	}
}

func TestParseCredentialScope(t *testing.T) {
	t.Parallel()
	scope, err := parseCredentialScope("AKID/20260805/eu-central-1/files/ems_request")
	if err != nil {
		t.Fatalf("parseCredentialScope error: %v", err)
	}
	if scope.Service != "files" || scope.Region != "eu-central-1" || scope.RequestType != "ems_request" {
		t.Fatalf("scope: %+v", scope)
	}
	if scope.String() != "AKID/20260805/eu-central-1/files/ems_request" {
		t.Fatalf("round trip: %q", scope.String())
	}
	for _, bad := range []string{"", "a/b/c/d", "a/b/c/d/e/f", "a//c/d/e"} {
		if _, err := parseCredentialScope(bad); err == nil {
			t.Fatalf("expected failure for %q", bad)
		}
	}
}
