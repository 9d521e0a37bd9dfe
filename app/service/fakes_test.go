package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/repository"
	"github.com/vibast-solutions/ms-go-connector/app/status"
	"github.com/vibast-solutions/ms-go-connector/config"
)

const (
	testAccountID    = uint64(1)
	testProviderName = "fake"
)

var errStoreDown = errors.New("store down")

type immediateTx struct{}

func (immediateTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (immediateTx) AfterCommit(_ context.Context, fn func()) {
	fn()
}

type serviceAccountRepo struct {
	accounts map[uint64]*entity.GatewayAccount
}

func (r *serviceAccountRepo) FindByID(_ context.Context, id uint64) (*entity.GatewayAccount, error) {
	item, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

type serviceChargeRepo struct {
	accounts   *serviceAccountRepo
	charges    map[string]*entity.Charge
	nextID     uint64
	failUpdate error
}

func (r *serviceChargeRepo) add(charge *entity.Charge) *entity.Charge {
	r.nextID++
	charge.ID = r.nextID
	if charge.GatewayAccountID == 0 {
		charge.GatewayAccountID = testAccountID
	}
	copyItem := *charge
	r.charges[charge.ExternalID] = &copyItem
	return charge
}

func (r *serviceChargeRepo) stored(externalID string) *entity.Charge {
	item, ok := r.charges[externalID]
	if !ok {
		return nil
	}
	copyItem := *item
	return &copyItem
}

func (r *serviceChargeRepo) Update(_ context.Context, charge *entity.Charge) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	current, ok := r.charges[charge.ExternalID]
	if !ok {
		return repository.ErrOptimisticLock
	}
	copyItem := *charge
	copyItem.Version = current.Version + 1
	r.charges[charge.ExternalID] = &copyItem
	charge.Version = copyItem.Version
	return nil
}

func (r *serviceChargeRepo) FindByExternalID(_ context.Context, externalID string) (*entity.Charge, error) {
	return r.stored(externalID), nil
}

func (r *serviceChargeRepo) FindByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.Charge, error) {
	return r.FindByExternalID(ctx, externalID)
}

func (r *serviceChargeRepo) FindByProviderTransactionID(_ context.Context, providerName, transactionID string) (*entity.Charge, error) {
	for _, item := range r.charges {
		if item.TransactionID() != transactionID {
			continue
		}
		account, ok := r.accounts.accounts[item.GatewayAccountID]
		if !ok || account.ProviderName != providerName {
			continue
		}
		copyItem := *item
		return &copyItem, nil
	}
	return nil, nil
}

func (r *serviceChargeRepo) ListByStatuses(_ context.Context, statuses []status.ChargeStatus, createdBefore time.Time, limit int32) ([]*entity.Charge, error) {
	items := make([]*entity.Charge, 0)
	for _, item := range r.charges {
		if item.Status.IsOneOf(statuses...) && !item.CreatedAt.After(createdBefore) {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if limit > 0 && len(items) > int(limit) {
		items = items[:limit]
	}
	return items, nil
}

type serviceRefundRepo struct {
	refunds map[string]*entity.Refund
	nextID  uint64
}

func (r *serviceRefundRepo) add(refund *entity.Refund) *entity.Refund {
	r.nextID++
	refund.ID = r.nextID
	copyItem := *refund
	r.refunds[refund.ExternalID] = &copyItem
	return refund
}

func (r *serviceRefundRepo) stored(externalID string) *entity.Refund {
	item, ok := r.refunds[externalID]
	if !ok {
		return nil
	}
	copyItem := *item
	return &copyItem
}

func (r *serviceRefundRepo) Create(_ context.Context, refund *entity.Refund) error {
	if _, ok := r.refunds[refund.ExternalID]; ok {
		return repository.ErrRefundAlreadyExists
	}
	r.add(refund)
	return nil
}

func (r *serviceRefundRepo) Update(_ context.Context, refund *entity.Refund) error {
	if _, ok := r.refunds[refund.ExternalID]; !ok {
		return repository.ErrOptimisticLock
	}
	copyItem := *refund
	r.refunds[refund.ExternalID] = &copyItem
	return nil
}

func (r *serviceRefundRepo) FindByExternalID(_ context.Context, externalID string) (*entity.Refund, error) {
	return r.stored(externalID), nil
}

func (r *serviceRefundRepo) FindByChargeAndGatewayTransactionID(_ context.Context, chargeExternalID, reference string) (*entity.Refund, error) {
	for _, item := range r.refunds {
		if item.ChargeExternalID == chargeExternalID && item.GatewayTransactionID != nil && *item.GatewayTransactionID == reference {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *serviceRefundRepo) ListByChargeExternalID(_ context.Context, chargeExternalID string) ([]*entity.Refund, error) {
	items := make([]*entity.Refund, 0)
	for _, item := range r.refunds {
		if item.ChargeExternalID == chargeExternalID {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

type serviceEventRepo struct {
	rows []*entity.ChargeEvent
}

func (r *serviceEventRepo) Create(_ context.Context, event *entity.ChargeEvent) error {
	copyItem := *event
	r.rows = append(r.rows, &copyItem)
	return nil
}

type serviceNotificationLogRepo struct {
	logs []*entity.NotificationLog
}

func (r *serviceNotificationLogRepo) Create(_ context.Context, log *entity.NotificationLog) error {
	copyItem := *log
	r.logs = append(r.logs, &copyItem)
	return nil
}

func (r *serviceNotificationLogRepo) last(t *testing.T) *entity.NotificationLog {
	t.Helper()
	if len(r.logs) == 0 {
		t.Fatalf("expected a notification log")
	}
	return r.logs[len(r.logs)-1]
}

type recordingPublisher struct {
	published []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event *events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) kinds() []events.Kind {
	kinds := make([]events.Kind, 0, len(p.published))
	for _, e := range p.published {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type recordingNotifier struct {
	issued []string
}

func (n *recordingNotifier) RefundIssued(_ context.Context, _ *entity.Charge, refund *entity.Refund) error {
	n.issued = append(n.issued, refund.ExternalID)
	return nil
}

type fakeLedger struct {
	refunds map[string][]*entity.Refund
	calls   int
}

func (l *fakeLedger) ListRefunds(_ context.Context, chargeExternalID string) ([]*entity.Refund, error) {
	l.calls++
	return l.refunds[chargeExternalID], nil
}

type fakeProvider struct {
	name string

	authoriseResp *provider.AuthoriseResponse
	authoriseErr  error
	captureResp   *provider.ModificationResponse
	captureErr    error
	cancelResp    *provider.ModificationResponse
	cancelErr     error
	refundResp    *provider.ModificationResponse
	refundErr     error

	notifications []*provider.Notification
	parseErr      error
	verified      bool
	mapper        *provider.StatusMapper

	captureCalls int
	cancelCalls  int
	refundCalls  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		name:        testProviderName,
		captureResp: &provider.ModificationResponse{Status: provider.ModificationComplete},
		cancelResp:  &provider.ModificationResponse{Status: provider.ModificationComplete},
		refundResp:  &provider.ModificationResponse{Status: provider.ModificationComplete, Reference: "gw-refund-1"},
		verified:    true,
		mapper: provider.NewStatusMapper().
			MapCharge("AUTHORISED", status.ChargeAuthorisationSuccess).
			MapCharge("CAPTURED", status.ChargeCaptured).
			MapRefund("REFUNDED", status.Refunded).
			MapRefund("REFUND_FAILED", status.RefundError).
			Ignore("SENT_FOR_AUTHORISATION"),
	}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Authorise(context.Context, *provider.AuthoriseRequest) (*provider.AuthoriseResponse, error) {
	return p.authoriseResp, p.authoriseErr
}

func (p *fakeProvider) Capture(context.Context, *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	p.captureCalls++
	return p.captureResp, p.captureErr
}

func (p *fakeProvider) Cancel(context.Context, *provider.ModificationRequest) (*provider.ModificationResponse, error) {
	p.cancelCalls++
	return p.cancelResp, p.cancelErr
}

func (p *fakeProvider) Refund(context.Context, *provider.RefundRequest) (*provider.ModificationResponse, error) {
	p.refundCalls++
	return p.refundResp, p.refundErr
}

func (p *fakeProvider) ParseNotification(*provider.NotificationPayload) ([]*provider.Notification, error) {
	return p.notifications, p.parseErr
}

func (p *fakeProvider) VerifyNotification(context.Context, *provider.Notification, *entity.GatewayAccount) bool {
	return p.verified
}

func (p *fakeProvider) StatusMapper() *provider.StatusMapper { return p.mapper }

func (p *fakeProvider) ExternalRefundAvailability(charge *entity.Charge, refunds []*entity.Refund) provider.RefundAvailability {
	return provider.DefaultRefundAvailability(charge, refunds)
}

// acknowledgingProvider answers malformed payloads with success.
type acknowledgingProvider struct {
	*fakeProvider
}

func (acknowledgingProvider) AcknowledgeMalformedNotifications() bool { return true }

type serviceFixture struct {
	accounts     *serviceAccountRepo
	charges      *serviceChargeRepo
	refunds      *serviceRefundRepo
	chargeEvents *serviceEventRepo
	logs         *serviceNotificationLogRepo
	publisher    *recordingPublisher
	notifier     *recordingNotifier
	ledger       *fakeLedger
	provider     *fakeProvider

	chargeDriver  *ChargeStatusDriver
	refundDriver  *RefundStatusDriver
	refunder      *RefundService
	chargeService *ChargeService
	notifications *NotificationService
}

func newServiceFixture(chargesCfg config.ChargesConfig, providers ...provider.Provider) *serviceFixture {
	accounts := &serviceAccountRepo{accounts: map[uint64]*entity.GatewayAccount{
		testAccountID: {ID: testAccountID, ProviderName: testProviderName, Type: entity.AccountTypeTest},
	}}
	f := &serviceFixture{
		accounts:     accounts,
		charges:      &serviceChargeRepo{accounts: accounts, charges: map[string]*entity.Charge{}},
		refunds:      &serviceRefundRepo{refunds: map[string]*entity.Refund{}},
		chargeEvents: &serviceEventRepo{},
		logs:         &serviceNotificationLogRepo{},
		publisher:    &recordingPublisher{},
		notifier:     &recordingNotifier{},
		ledger:       &fakeLedger{refunds: map[string][]*entity.Refund{}},
		provider:     newFakeProvider(),
	}
	if len(providers) == 0 {
		providers = []provider.Provider{f.provider}
	}
	registry := provider.NewRegistry(providers...)

	f.chargeDriver = NewChargeStatusDriver(immediateTx{}, f.charges, f.chargeEvents, f.publisher)
	f.refundDriver = NewRefundStatusDriver(immediateTx{}, f.refunds, f.chargeEvents, f.publisher, f.notifier)
	f.refunder = NewRefundService(immediateTx{}, f.accounts, f.charges, f.refunds, registry, f.ledger, f.refundDriver)
	f.chargeService = NewChargeService(f.accounts, f.charges, registry, f.chargeDriver, chargesCfg)
	f.notifications = NewNotificationService(f.accounts, f.charges, f.refunds, registry, f.logs, f.chargeDriver, f.refundDriver)
	return f
}

func (f *serviceFixture) addCharge(externalID string, chargeStatus status.ChargeStatus, amount int64) *entity.Charge {
	return f.charges.add(&entity.Charge{
		ExternalID:  externalID,
		AmountCents: amount,
		Currency:    "GBP",
		Status:      chargeStatus,
		CreatedAt:   time.Now().UTC().Add(-time.Minute),
		UpdatedAt:   time.Now().UTC().Add(-time.Minute),
	})
}

func (f *serviceFixture) addRefund(externalID, chargeExternalID string, refundStatus status.RefundStatus, amount int64, reference string) *entity.Refund {
	refund := &entity.Refund{
		ExternalID:       externalID,
		ChargeExternalID: chargeExternalID,
		AmountCents:      amount,
		Status:           refundStatus,
	}
	if reference != "" {
		refund.GatewayTransactionID = &reference
	}
	return f.refunds.add(refund)
}

func stringPtr(v string) *string {
	return &v
}
