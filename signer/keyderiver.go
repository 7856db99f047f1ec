package signer

import "strings"

// DeriveSigningKey chain-HMACs secret through the four components of
// fullCredentialScope (shortDate/region/service/requestType), seeded with
// vendorPrefix||secret. The result is raw key bytes, not hex.
func DeriveSigningKey(secret, fullCredentialScope string, algo HashAlgo, vendorPrefix string) []byte {
	segments := strings.Split(fullCredentialScope, "/")
	key := algo.hmacSum([]byte(vendorPrefix+secret), []byte(segments[0]))
	for _, segment := range segments[1:] {
		key = algo.hmacSum(key, []byte(segment))
	}
	return key
}
