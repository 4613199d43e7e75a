package handler

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"workforce-api/common"
	"workforce-api/logger"
	"workforce-api/service"

	"github.com/sirupsen/logrus"
)

// AbuseGuard runs the rate-limit and spam checks before a request reaches
// its handler and writes every request, blocked or not, to the ledger.
type AbuseGuard struct {
	detector     *service.AbuseDetector
	audit        *service.AuditTrail
	tokens       *service.TokenService
	maxBodyBytes int64
}

func NewAbuseGuard(detector *service.AbuseDetector, audit *service.AuditTrail, tokens *service.TokenService, maxBodyBytes int64) *AbuseGuard {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &AbuseGuard{
		detector:     detector,
		audit:        audit,
		tokens:       tokens,
		maxBodyBytes: maxBodyBytes,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (g *AbuseGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := ClientIP(r)
		ctx := context.WithValue(r.Context(), ClientIPKey, ip)
		r = r.WithContext(ctx)

		var payload []byte
		if r.Body != nil {
			var err error
			payload, err = io.ReadAll(io.LimitReader(r.Body, g.maxBodyBytes+1))
			if err != nil {
				common.NewAppError(http.StatusBadRequest, "Could not read request body", err).Send(w)
				return
			}
		}
		if int64(len(payload)) > g.maxBodyBytes {
			common.NewAppError(http.StatusRequestEntityTooLarge, "Request body too large", nil).Send(w)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))

		userID := g.identify(r)
		rec := service.RequestRecord{
			IPAddress: ip,
			UserID:    userID,
			Endpoint:  r.URL.Path,
			Method:    r.Method,
			UserAgent: r.UserAgent(),
			Payload:   payload,
		}

		var reason string
		switch {
		case g.detector.IsRateLimitExceeded(ctx, ip, userID):
			reason = "rate limit exceeded"
		case g.detector.IsSpam(ctx, ip, userID, r.URL.Path, payload):
			reason = "spam detected"
		}

		if reason != "" {
			logger.Log.WithFields(logrus.Fields{
				"ip_address": ip,
				"endpoint":   r.URL.Path,
				"reason":     reason,
			}).Warn("Request blocked")
			common.NewAppError(http.StatusTooManyRequests, "Too many requests", nil).Send(w)

			rec.StatusCode = http.StatusTooManyRequests
			rec.Latency = time.Since(start)
			g.record(ctx, rec)
			if err := g.audit.MarkSuspiciousActivity(ctx, userID, ip, reason+" on "+r.Method+" "+r.URL.Path); err != nil {
				logger.Log.WithError(err).Warn("Could not record suspicious activity")
			}
			return
		}

		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		rec.StatusCode = sw.status
		rec.Latency = time.Since(start)
		g.record(ctx, rec)
	})
}

// record writes the ledger entry after the response is sent, so a failed
// write only loses the entry.
func (g *AbuseGuard) record(ctx context.Context, rec service.RequestRecord) {
	if _, err := g.detector.LogRequest(ctx, rec); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"ip_address":  rec.IPAddress,
			"endpoint":    rec.Endpoint,
			"status_code": rec.StatusCode,
		}).Warn("Request served without a ledger entry")
	}
}

// identify returns the caller's user ID when the request carries a token
// that validates; anonymous otherwise.
func (g *AbuseGuard) identify(r *http.Request) *string {
	if g.tokens == nil {
		return nil
	}
	raw, appErr := bearerToken(r)
	if appErr != nil {
		return nil
	}
	claims, err := g.tokens.ValidateAccessToken(r.Context(), raw)
	if err != nil {
		return nil
	}
	return &claims.Subject
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ClientIPKey).(string); ok && ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
