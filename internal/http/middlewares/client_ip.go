package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies son las redes de proxies cuyo X-Forwarded-For se honra.
// Vacío: la IP del cliente es siempre la del peer TCP.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies acepta IPs sueltas o CIDRs.
func ParseTrustedProxies(list []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (tp TrustedProxies) trusts(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range tp {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// Resolve devuelve la IP del cliente. X-Forwarded-For solo cuenta si el peer es un proxy
// confiable; se recorre de derecha a izquierda y gana el primer hop no confiable.
func (tp TrustedProxies) Resolve(r *http.Request) string {
	peer := remoteIP(r)
	if len(tp) == 0 || !tp.trusts(peer) {
		return peer
	}
	xf := r.Header.Values("X-Forwarded-For")
	hops := strings.Split(strings.Join(xf, ","), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		h := strings.TrimSpace(hops[i])
		if h == "" {
			continue
		}
		client = h
		if !tp.trusts(h) {
			break
		}
	}
	return client
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClientIP resuelve la IP del cliente una vez y la deja en el contexto para el rate
// limit y el access log.
func WithClientIP(tp TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(setClientIP(r.Context(), tp.Resolve(r))))
		})
	}
}

// clientIP lee la IP resuelta por WithClientIP; sin ese middleware usa el peer.
func clientIP(r *http.Request) string {
	if ip := getClientIP(r.Context()); ip != "" {
		return ip
	}
	return remoteIP(r)
}
