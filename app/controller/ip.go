package controller

import (
	"fmt"
	"net"

	"github.com/labstack/echo/v4"
)

// NewIPExtractor returns the extractor used for ctx.RealIP. With no trusted
// proxies the peer address is used as is. Otherwise X-Forwarded-For is only
// honoured when the peer falls in one of trustedProxyCIDRs.
func NewIPExtractor(trustedProxyCIDRs []string) (echo.IPExtractor, error) {
	if len(trustedProxyCIDRs) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxyCIDRs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy cidr %q: %w", cidr, err)
		}
		options = append(options, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(options...), nil
}
