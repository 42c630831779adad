package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/pkg/logger"
)

// DefaultDebugCIDRs allows loopback only. RegisterDebug falls back to it when
// no CIDRs are configured.
var DefaultDebugCIDRs = []string{"127.0.0.0/8", "::1/128"}

// RegisterDebug mounts the runtime profiling endpoints under /debug/pprof
// together with any routes added by extra. Every route in the group is
// reachable only from addresses inside allowedCIDRs.
func RegisterDebug(r chi.Router, allowedCIDRs []string, l *slog.Logger, extra func(chi.Router)) {
	if len(allowedCIDRs) == 0 {
		allowedCIDRs = DefaultDebugCIDRs
	}
	r.Group(func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, l))
		if extra != nil {
			extra(r)
		}
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	})
}

// IPAllowlist rejects with 403 any request whose remote address falls
// outside cidrs. Invalid CIDRs are logged and skipped; an empty list denies
// everything.
func IPAllowlist(cidrs []string, l *slog.Logger) func(http.Handler) http.Handler {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			l.Warn("invalid allowlist CIDR, skipping",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		nets = append(nets, ipNet)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !containsIP(nets, net.ParseIP(host)) {
				l.WarnContext(r.Context(), "access denied by IP allowlist",
					slog.String("ip", host),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
					Error:     "access restricted by IP allowlist",
					Code:      "FORBIDDEN",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
