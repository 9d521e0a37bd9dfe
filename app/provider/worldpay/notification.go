package worldpay

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
)

type notificationEnvelope struct {
	XMLName xml.Name `xml:"paymentService"`
	Notify  struct {
		OrderStatusEvent *struct {
			OrderCode string `xml:"orderCode,attr"`
			Payment   struct {
				LastEvent string `xml:"lastEvent"`
			} `xml:"payment"`
			Journal struct {
				BookingDate struct {
					Date *struct {
						Day   int `xml:"dayOfMonth,attr"`
						Month int `xml:"month,attr"`
						Year  int `xml:"year,attr"`
					} `xml:"date"`
				} `xml:"bookingDate"`
				References []struct {
					Type      string `xml:"type,attr"`
					Reference string `xml:"reference,attr"`
				} `xml:"journalReference"`
			} `xml:"journal"`
		} `xml:"orderStatusEvent"`
	} `xml:"notify"`
}

// Resolver looks up the host names of an address. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

func (p *Provider) ParseNotification(payload *provider.NotificationPayload) ([]*provider.Notification, error) {
	if payload == nil || len(bytes.TrimSpace(payload.Body)) == 0 {
		return nil, errors.New("empty worldpay notification")
	}

	var envelope notificationEnvelope
	if err := xml.NewDecoder(bytes.NewReader(payload.Body)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode worldpay notification: %w", err)
	}

	event := envelope.Notify.OrderStatusEvent
	if event == nil || strings.TrimSpace(event.OrderCode) == "" {
		return nil, errors.New("worldpay notification has no order status event")
	}

	notification := &provider.Notification{
		TransactionID: strings.TrimSpace(event.OrderCode),
		StatusCode:    strings.TrimSpace(event.Payment.LastEvent),
		Payload:       payload,
	}
	for _, ref := range event.Journal.References {
		if ref.Type == "refund" && strings.TrimSpace(ref.Reference) != "" {
			notification.Reference = strings.TrimSpace(ref.Reference)
		}
	}
	if d := event.Journal.BookingDate.Date; d != nil && d.Year > 0 {
		date := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		notification.EventDate = &date
	}

	return []*provider.Notification{notification}, nil
}

// AcknowledgeMalformedNotifications makes the ingress answer 200 to
// unparseable payloads, which Worldpay would otherwise redeliver.
func (p *Provider) AcknowledgeMalformedNotifications() bool {
	return true
}

// VerifyNotification trusts a notification when its source address is in an
// allowed range and reverse-resolves into the Worldpay domain.
func (p *Provider) VerifyNotification(ctx context.Context, notification *provider.Notification, account *entity.GatewayAccount) bool {
	if notification == nil || notification.Payload == nil {
		return false
	}
	ip := net.ParseIP(strings.TrimSpace(notification.Payload.RemoteIP))
	if ip == nil {
		return false
	}

	cidrs := p.cfg.NotificationCIDRs
	if account != nil && len(account.NotificationCIDRs) > 0 {
		cidrs = account.NotificationCIDRs
	}
	if !ipInRanges(ip, cidrs) {
		return false
	}

	names, err := p.resolver.LookupAddr(ctx, ip.String())
	if err != nil {
		return false
	}
	domain := strings.ToLower(strings.TrimSuffix(p.cfg.NotificationDomain, "."))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSuffix(name, "."))
		if domain != "" && strings.HasSuffix(name, domain) {
			return true
		}
	}
	return false
}

func ipInRanges(ip net.IP, cidrs []string) bool {
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
