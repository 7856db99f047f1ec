package integration

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emssig/internal/api"
	"emssig/internal/keystore"
	"emssig/signer"
)

// Env is a fully wired verification service plus a matching signing client,
// pinned to a fixed clock so signatures are reproducible across the suite.
type Env struct {
	t      *testing.T
	Server *httptest.Server
	Store  *keystore.Store
	Now    time.Time
	party  signer.Party
}

const envCredentialsYAML = `credentials:
  - name: primary suite key
    access_key_id: AKIDPRIMARY
    secret_key: primary-secret
  - name: secondary suite key
    access_key_id: AKIDSECONDARY
    secret_key: secondary-secret
`

func NewEnv(t *testing.T) *Env {
	t.Helper()
	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	party := signer.Party{Region: "us-east-1", Service: "files", RequestType: "ems_request"}

	credPath := filepath.Join(t.TempDir(), "credentials.yaml")
	if err := os.WriteFile(credPath, []byte(envCredentialsYAML), 0o600); err != nil {
		t.Fatalf("write credentials file: %v", err)
	}
	store, err := keystore.LoadFile(credPath)
	if err != nil {
		t.Fatalf("LoadFile credentials error: %v", err)
	}

	svc := &api.Service{
		Verifier: signer.NewVerifier(signer.ServerConfig{
			Party:     party,
			KeyLookup: store.Lookup,
		}),
		Keys:         store,
		MaxBodyBytes: 8 * 1024 * 1024,
		PathLive:     "/healthz",
		PathReady:    "/readyz",
		Now:          func() time.Time { return now },
	}
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	return &Env{t: t, Server: srv, Store: store, Now: now, party: party}
}

func (e *Env) BaseURL() string { return e.Server.URL }

// SigningClient returns a client holding one of the configured credentials.
func (e *Env) SigningClient(accessKey, secret string) *signer.Client {
	return signer.NewClient(signer.ClientConfig{
		SecretKey:   secret,
		AccessKeyID: accessKey,
		Party:       e.party,
	})
}

// DoSigned signs and sends a request through the real HTTP stack.
func (e *Env) DoSigned(client *signer.Client, method, path string, body []byte) *http.Response {
	e.t.Helper()
	target := e.BaseURL() + path
	headers, err := client.SignHeaders(method, target, body, nil, nil, e.Now)
	if err != nil {
		e.t.Fatalf("SignHeaders error: %v", err)
	}

	req, err := http.NewRequest(method, target, bodyReader(body))
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("request failed: %v", err)
	}
	return resp
}

func bodyReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return bytes.NewReader(body)
}
