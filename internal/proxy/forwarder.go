// Package proxy forwards an inbound request to a resolved destination,
// preserving method, path remainder, query, headers, and body.
package proxy

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/waroute/waroute/internal/domain"
)

// ForwardedPhoneHeader carries the resolved identity to the destination.
const ForwardedPhoneHeader = "X-Forwarded-Phone"

// hopHeaders are connection-level headers that must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder sends requests upstream with an explicit timeout. It holds no
// per-request state; the resolved target and prefix arrive as parameters.
type Forwarder struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a forwarder whose upstream calls time out after timeout.
func New(timeout time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Forward sends the inbound request to the route's target with prefix
// stripped from the path, injecting the resolved phone identity, and streams
// the destination's status, headers, and body back to w. The body is passed
// separately because dispatchers read it for identity extraction first.
// Transport failures return an UpstreamUnavailable error; nothing is written
// to w in that case.
func (f *Forwarder) Forward(ctx context.Context, w http.ResponseWriter, r *http.Request, route *domain.RouteConfig, prefix string, body []byte, phoneNumber string) error {
	target, err := buildTargetURL(route.TargetURL, r.URL, prefix)
	if err != nil {
		return domain.ErrUpstreamUnavailable("invalid target URL: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(body))
	if err != nil {
		return domain.ErrUpstreamUnavailable("failed to build upstream request: " + err.Error())
	}

	copyHeaders(req.Header, r.Header)
	req.Header.Set(ForwardedPhoneHeader, phoneNumber)

	f.logger.Info("forwarding request",
		slog.String("phone", phoneNumber),
		slog.String("target", target),
		slog.String("method", r.Method),
	)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("upstream request failed",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		return domain.ErrUpstreamUnavailable("failed to reach destination: " + err.Error()).WithPhone(phoneNumber)
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Status already sent; the caller connection is the one that broke.
		f.logger.Error("failed streaming upstream response", slog.String("error", err.Error()))
	}
	return nil
}

// buildTargetURL joins the target base with the inbound path after prefix,
// e.g. target https://backend.example + /proxy/items/5 with prefix /proxy
// becomes https://backend.example/items/5. The inbound query is preserved.
func buildTargetURL(targetURL string, inbound *url.URL, prefix string) (string, error) {
	base, err := url.Parse(targetURL)
	if err != nil {
		return "", err
	}

	remainder := strings.TrimPrefix(inbound.Path, prefix)
	if remainder != "" && !strings.HasPrefix(remainder, "/") {
		remainder = "/" + remainder
	}

	base.Path = strings.TrimSuffix(base.Path, "/") + remainder
	base.RawQuery = inbound.RawQuery
	return base.String(), nil
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopHeader(key) {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func isHopHeader(key string) bool {
	for _, h := range hopHeaders {
		if strings.EqualFold(key, h) {
			return true
		}
	}
	return false
}
