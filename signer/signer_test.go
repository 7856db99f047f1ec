package signer

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2011, 9, 9, 23, 36, 0, 0, time.UTC)

func TestStringToSign(t *testing.T) {
	t.Parallel()
	party := Party{Region: "us-east-1", Service: "iam", RequestType: "aws4_request"}
	got := StringToSign(party, "canonical", testDate, HashSHA256, "EMS")
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "EMS-HMAC-SHA256" {
		t.Fatalf("algorithm line: %q", lines[0])
	}
	if lines[1] != "20110909T233600Z" {
		t.Fatalf("date line: %q", lines[1])
	}
	if lines[2] != "20110909/us-east-1/iam/aws4_request" {
		t.Fatalf("scope line: %q", lines[2])
	}
	if len(lines[3]) != 64 {
		t.Fatalf("hash line length: %d", len(lines[3]))
	}
}

func TestDeriveSigningKeyDeterministic(t *testing.T) {
	t.Parallel()
	a := DeriveSigningKey("secret", "20110909/us-east-1/iam/aws4_request", HashSHA256, "EMS")
	b := DeriveSigningKey("secret", "20110909/us-east-1/iam/aws4_request", HashSHA256, "EMS")
	if !bytes.Equal(a, b) {
		t.Fatal("derivation is not deterministic")
	}
	if len(a) != 32 {
		t.Fatalf("sha256 key length: %d", len(a))
	}
	c := DeriveSigningKey("secret", "20110910/us-east-1/iam/aws4_request", HashSHA256, "EMS")
	if bytes.Equal(a, c) {
		t.Fatal("different scope produced the same key")
	}
	d := DeriveSigningKey("secret", "20110909/us-east-1/iam/aws4_request", HashSHA256, "AWS4")
	if bytes.Equal(a, d) {
		t.Fatal("different vendor prefix produced the same key")
	}
}

func TestDeriveSigningKeySHA512Length(t *testing.T) {
	t.Parallel()
	key := DeriveSigningKey("secret", "20110909/us-east-1/iam/aws4_request", HashSHA512, "EMS")
	if len(key) != 64 {
		t.Fatalf("sha512 key length: %d", len(key))
	}
}

// Exercises the whole signing chain against a fixed vector: key derivation,
// canonicalization, string-to-sign, and the final HMAC.
func TestSignatureVector(t *testing.T) {
	t.Parallel()
	party := Party{Region: "us-east-1", Service: "iam", RequestType: "aws4_request"}
	headers := map[string][]string{
		"content-type": {"application/x-www-form-urlencoded; charset=utf-8"},
		"host":         {"iam.amazonaws.com"},
		"x-ems-date":   {"20110909T233600Z"},
	}
	canonical := BuildCanonicalRequest("POST", "/", "", headers,
		[]string{"content-type", "host", "x-ems-date"},
		[]byte("Action=ListUsers&Version=2010-05-08"), HashSHA256)
	stringToSign := StringToSign(party, canonical, testDate, HashSHA256, "EMS")
	key := DeriveSigningKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", party.FullScope("20110909"), HashSHA256, "EMS")

	got := Signature(stringToSign, key, HashSHA256)
	want := "f36c21c6e16a71a6e8dc56673ad6354aeef49c577a22fd58a190b5fcf8891dbd"
	if got != want {
		t.Fatalf("signature = %s, want %s", got, want)
	}
}

func TestSignatureSHA512Shape(t *testing.T) {
	t.Parallel()
	key := DeriveSigningKey("secret", "20110909/us-east-1/iam/aws4_request", HashSHA512, "EMS")
	sig := Signature("payload", key, HashSHA512)
	if len(sig) != 128 {
		t.Fatalf("sha512 signature length: %d", len(sig))
	}
	if sig != strings.ToLower(sig) {
		t.Fatal("signature is not lowercase hex")
	}
}

func TestPartyScope(t *testing.T) {
	t.Parallel()
	p := Party{Region: "eu-central-1", Service: "files", RequestType: "ems_request"}
	if p.Scope() != "eu-central-1/files/ems_request" {
		t.Fatalf("scope: %q", p.Scope())
	}
	if p.FullScope("20260805") != "20260805/eu-central-1/files/ems_request" {
		t.Fatalf("full scope: %q", p.FullScope("20260805"))
	}
	if !p.Equal(CredentialScope{Region: "eu-central-1", Service: "files", RequestType: "ems_request"}) {
		t.Fatal("matching scope not equal")
	}
	if p.Equal(CredentialScope{Region: "eu-central-1", Service: "files", RequestType: "aws4_request"}) {
		t.Fatal("mismatching request type reported equal")
	}
}

func TestHashAlgoTags(t *testing.T) {
	t.Parallel()
	if HashSHA256.Tag() != "SHA256" || HashSHA512.Tag() != "SHA512" {
		t.Fatalf("tags: %q %q", HashSHA256.Tag(), HashSHA512.Tag())
	}
	if _, ok := parseHashTag("SHA256"); !ok {
		t.Fatal("SHA256 rejected")
	}
	if _, ok := parseHashTag("SHA512"); !ok {
		t.Fatal("SHA512 rejected")
	}
	if _, ok := parseHashTag("SHA123"); ok {
		t.Fatal("SHA123 accepted")
	}
	if HashAlgo("md5").Valid() {
		t.Fatal("md5 reported valid")
	}
}
