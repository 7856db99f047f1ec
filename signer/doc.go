// Package signer implements a symmetric-secret, HMAC-based request signing
// and verification scheme modeled on the AWS Signature Version 4 family,
// parameterized by a configurable vendor prefix (EMS, AWS4, ...).
//
// The package is pure with respect to request data: every exported function
// takes explicit inputs and returns explicit outputs. It performs no I/O;
// its only shared state is the mutex-guarded derived-key cache each Client
// and Verifier carries, so it is safe to call concurrently with independent
// inputs. Callers own the clock (pass the current time in) and
// the secret store (implement KeyLookup).
package signer
