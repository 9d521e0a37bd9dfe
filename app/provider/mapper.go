package provider

import "github.com/vibast-solutions/ms-go-connector/app/status"

type Disposition int

const (
	DispositionUnknown Disposition = iota
	DispositionMapped
	DispositionIgnored
)

// InterpretedStatus is what a processor status code means for this system.
type InterpretedStatus struct {
	Disposition  Disposition
	ChargeStatus status.ChargeStatus
	RefundStatus status.RefundStatus
}

func (s InterpretedStatus) IsMapped() bool  { return s.Disposition == DispositionMapped }
func (s InterpretedStatus) IsIgnored() bool { return s.Disposition == DispositionIgnored }
func (s InterpretedStatus) IsUnknown() bool { return s.Disposition == DispositionUnknown }

// IsRefund reports whether a mapped status applies to a refund.
func (s InterpretedStatus) IsRefund() bool {
	return s.IsMapped() && s.RefundStatus != ""
}

// StatusMapper translates processor status codes. Providers configure one at
// construction; it is read-only afterwards.
type StatusMapper struct {
	charges map[string]status.ChargeStatus
	refunds map[string]status.RefundStatus
	derived map[string]func(current status.ChargeStatus) status.ChargeStatus
	ignored map[string]struct{}
}

func NewStatusMapper() *StatusMapper {
	return &StatusMapper{
		charges: map[string]status.ChargeStatus{},
		refunds: map[string]status.RefundStatus{},
		derived: map[string]func(status.ChargeStatus) status.ChargeStatus{},
		ignored: map[string]struct{}{},
	}
}

func (m *StatusMapper) MapCharge(code string, s status.ChargeStatus) *StatusMapper {
	m.charges[code] = s
	return m
}

func (m *StatusMapper) MapRefund(code string, s status.RefundStatus) *StatusMapper {
	m.refunds[code] = s
	return m
}

// Derive maps a code whose meaning depends on the charge's current status.
func (m *StatusMapper) Derive(code string, fn func(current status.ChargeStatus) status.ChargeStatus) *StatusMapper {
	m.derived[code] = fn
	return m
}

func (m *StatusMapper) Ignore(codes ...string) *StatusMapper {
	for _, code := range codes {
		m.ignored[code] = struct{}{}
	}
	return m
}

func (m *StatusMapper) From(code string, current status.ChargeStatus) InterpretedStatus {
	if s, ok := m.charges[code]; ok {
		return InterpretedStatus{Disposition: DispositionMapped, ChargeStatus: s}
	}
	if s, ok := m.refunds[code]; ok {
		return InterpretedStatus{Disposition: DispositionMapped, RefundStatus: s}
	}
	if fn, ok := m.derived[code]; ok {
		return InterpretedStatus{Disposition: DispositionMapped, ChargeStatus: fn(current)}
	}
	if _, ok := m.ignored[code]; ok {
		return InterpretedStatus{Disposition: DispositionIgnored}
	}
	return InterpretedStatus{Disposition: DispositionUnknown}
}
