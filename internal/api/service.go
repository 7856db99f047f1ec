package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emssig/internal/keystore"
	"emssig/signer"
)

// Service exposes the verifier over HTTP: every non-health request is
// authenticated and answered with the identity that signed it. It is the
// worked server-side example for the signer package, not a framework;
// real deployments embed the same Authenticate call in their own handlers.
type Service struct {
	Verifier          *signer.Verifier
	Keys              *keystore.Store
	MaxBodyBytes      int64
	PathLive          string
	PathReady         string
	ReadyCheck        func() error
	Now               func() time.Time
	Logger            *slog.Logger
	TrustProxyHeaders bool
}

type identityResponse struct {
	AccessKeyID string `json:"access_key_id"`
	Name        string `json:"name,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Service) Handler() http.Handler {
	nowFn := s.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := nowFn()
		reqID := newRequestID()
		w.Header().Set("X-Request-Id", reqID)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		switch r.URL.Path {
		case s.PathLive:
			if s.PathLive != "" {
				sw.WriteHeader(http.StatusOK)
				_, _ = sw.Write([]byte("ok"))
				s.logRequest(logger, r, sw.status, time.Since(start), reqID, "", "")
				return
			}
		case s.PathReady:
			if s.PathReady != "" {
				if s.ReadyCheck != nil {
					if err := s.ReadyCheck(); err != nil {
						writeJSON(sw, http.StatusServiceUnavailable, errorResponse{Code: "not_ready", Message: err.Error()})
						s.logRequest(logger, r, sw.status, time.Since(start), reqID, "", "not_ready")
						return
					}
				}
				sw.WriteHeader(http.StatusOK)
				_, _ = sw.Write([]byte("ok"))
				s.logRequest(logger, r, sw.status, time.Since(start), reqID, "", "")
				return
			}
		}

		body, err := s.readBody(sw, r)
		if err != nil {
			writeJSON(sw, http.StatusRequestEntityTooLarge, errorResponse{Code: "body_too_large", Message: "request body exceeds the configured limit"})
			s.logRequest(logger, r, sw.status, time.Since(start), reqID, "", "body_too_large")
			return
		}

		view := signer.NewHTTPRequestView(r, body)
		if s.TrustProxyHeaders {
			view = forwardedRequestView(r, view)
		}

		accessKey, err := s.Verifier.Authenticate(view, nowFn())
		if err != nil {
			kind, status, message := describeAuthError(err)
			writeJSON(sw, status, errorResponse{Code: kind, Message: message})
			s.logRequest(logger, r, sw.status, time.Since(start), reqID, "", kind)
			return
		}

		name := ""
		if s.Keys != nil {
			name = s.Keys.NameOf(accessKey)
		}
		writeJSON(sw, http.StatusOK, identityResponse{
			AccessKeyID: accessKey,
			Name:        name,
			Method:      r.Method,
			Path:        r.URL.Path,
		})
		s.logRequest(logger, r, sw.status, time.Since(start), reqID, accessKey, "")
	})
}

func (s *Service) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	reader := io.Reader(r.Body)
	if s.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
		reader = r.Body
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Service) logRequest(logger *slog.Logger, r *http.Request, status int, latency time.Duration, reqID, accessKey, errorCode string) {
	logger.Info("request complete",
		"request_id", reqID,
		"remote_addr", r.RemoteAddr,
		"method", r.Method,
		"host", r.Host,
		"path", r.URL.Path,
		"status_code", status,
		"latency_ms", latency.Milliseconds(),
		"access_key", accessKey,
		"error_code", errorCode,
	)
}

func describeAuthError(err error) (kind string, status int, message string) {
	var sigErr *signer.Error
	if errors.As(err, &sigErr) {
		return string(sigErr.Kind), signer.MapToStatus(sigErr.Kind), sigErr.Message
	}
	return "internal", http.StatusInternalServerError, "authentication failed"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(buf[:])
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(p []byte) (int, error) {
	return s.ResponseWriter.Write(p)
}

// proxyRequestView overrides the transport-derived host fields with the
// values a trusted reverse proxy forwarded, so the verifier's host check
// runs against the name the client actually connected to.
type proxyRequestView struct {
	signer.RequestView
	serverName string
	serverPort string
	scheme     string
}

func (v *proxyRequestView) ServerName() string {
	if v.serverName != "" {
		return v.serverName
	}
	return v.RequestView.ServerName()
}

func (v *proxyRequestView) ServerPort() string {
	if v.serverPort != "" {
		return v.serverPort
	}
	return v.RequestView.ServerPort()
}

func (v *proxyRequestView) Scheme() string {
	if v.scheme != "" {
		return v.scheme
	}
	return v.RequestView.Scheme()
}

func forwardedRequestView(r *http.Request, inner signer.RequestView) signer.RequestView {
	view := &proxyRequestView{RequestView: inner}
	if host := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); host != "" {
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			view.serverName = host[:idx]
			view.serverPort = host[idx+1:]
		} else {
			view.serverName = host
		}
	}
	if port := strings.TrimSpace(r.Header.Get("X-Forwarded-Port")); port != "" {
		view.serverPort = port
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		view.scheme = proto
	}
	return view
}
