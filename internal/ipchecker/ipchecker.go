// Package ipchecker decides whether a request comes from the trusted subnet
// that may read the internal statistics.
package ipchecker

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNoClientIP is returned when no usable address can be found in a request.
var ErrNoClientIP = errors.New("client IP address is unknown")

// IPChecker holds the trusted subnet. A zero subnet trusts nobody.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet in CIDR notation, e.g. "192.168.1.0/24". An empty
// string gives a checker for which IsTrustedSubnetEmpty reports true.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP takes the address from X-Real-IP, then the first entry of
// X-Forwarded-For, then RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip, nil
		}
		return nil, fmt.Errorf("X-Forwarded-For %q: %w", xff, ErrNoClientIP)
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("remote address %q: %w", request.RemoteAddr, ErrNoClientIP)
	}

	return ip, nil
}

func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}
