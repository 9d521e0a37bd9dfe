package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/repository"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/app/status"
	"github.com/vibast-solutions/ms-go-connector/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type grpcRefundService struct {
	refundFn      func(ctx context.Context, accountID uint64, chargeExternalID string, req *service.RefundRequest) (*entity.Refund, error)
	listRefundsFn func(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, []*entity.Refund, error)
}

func (s *grpcRefundService) Refund(ctx context.Context, accountID uint64, chargeExternalID string, req *service.RefundRequest) (*entity.Refund, error) {
	return s.refundFn(ctx, accountID, chargeExternalID, req)
}

func (s *grpcRefundService) ListRefunds(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, []*entity.Refund, error) {
	return s.listRefundsFn(ctx, accountID, chargeExternalID)
}

type grpcChargeService struct {
	captureFn func(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error)
	cancelFn  func(ctx context.Context, accountID uint64, chargeExternalID string, kind service.CancelKind) (*entity.Charge, error)
}

func (s *grpcChargeService) Capture(ctx context.Context, accountID uint64, chargeExternalID string) (*entity.Charge, error) {
	return s.captureFn(ctx, accountID, chargeExternalID)
}

func (s *grpcChargeService) Cancel(ctx context.Context, accountID uint64, chargeExternalID string, kind service.CancelKind) (*entity.Charge, error) {
	return s.cancelFn(ctx, accountID, chargeExternalID, kind)
}

func TestRefundInvalidArgument(t *testing.T) {
	srv := NewServer(&grpcRefundService{}, &grpcChargeService{})

	_, err := srv.Refund(context.Background(), &types.RefundRequest{AccountId: 1, ChargeId: "charge-1"})
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err))
}

func TestRefundMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{service.ErrRefundNotEnoughAvailable, codes.InvalidArgument},
		{service.ErrChargeNotFound, codes.NotFound},
		{fmt.Errorf("wrapped: %w", service.ErrRefundAmountAvailableMismatch), codes.FailedPrecondition},
		{repository.ErrOptimisticLock, codes.Aborted},
		{provider.NewGatewayError(provider.GatewayTimeoutError, "slow"), codes.Unavailable},
		{errors.New("db down"), codes.Internal},
	}

	for _, tc := range cases {
		srv := NewServer(&grpcRefundService{
			refundFn: func(context.Context, uint64, string, *service.RefundRequest) (*entity.Refund, error) {
				return nil, tc.err
			},
		}, &grpcChargeService{})

		_, err := srv.Refund(context.Background(), &types.RefundRequest{AccountId: 1, ChargeId: "charge-1", Amount: 100})
		assert.Equal(t, tc.code, grpcstatus.Code(err), "error %v", tc.err)
	}
}

func TestCancelUsesInitiator(t *testing.T) {
	var got service.CancelKind
	srv := NewServer(&grpcRefundService{}, &grpcChargeService{
		cancelFn: func(_ context.Context, _ uint64, id string, kind service.CancelKind) (*entity.Charge, error) {
			got = kind
			return &entity.Charge{ExternalID: id, Status: status.ChargeUserCancelled}, nil
		},
	})

	resp, err := srv.Cancel(context.Background(), &types.CancelRequest{AccountId: 1, ChargeId: "charge-1", Initiator: types.CancelInitiatorUser})
	require.NoError(t, err)
	assert.Equal(t, service.CancelByUser, got)
	assert.Equal(t, "USER_CANCELLED", resp.Charge.Status)

	_, err = srv.Cancel(context.Background(), &types.CancelRequest{AccountId: 1, ChargeId: "charge-1"})
	require.NoError(t, err)
	assert.Equal(t, service.CancelByService, got)
}

func TestConnectorServiceOverBufconn(t *testing.T) {
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(RecoveryInterceptor(), RequestIDInterceptor(), LoggingInterceptor()))
	RegisterConnectorServer(server, NewServer(&grpcRefundService{
		refundFn: func(_ context.Context, accountID uint64, chargeID string, req *service.RefundRequest) (*entity.Refund, error) {
			return &entity.Refund{
				ExternalID:       "refund-1",
				ChargeExternalID: chargeID,
				AmountCents:      req.AmountCents,
				Status:           status.RefundSubmitted,
			}, nil
		},
	}, &grpcChargeService{}))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	req := &types.RefundRequest{AccountId: 1, ChargeId: "charge-1", Amount: 250}

	var resp types.RefundResponse
	err = conn.Invoke(context.Background(), "/"+ServiceName+"/Refund", req, &resp)
	assert.Equal(t, codes.InvalidArgument, grpcstatus.Code(err), "missing request id")

	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDHeader, "req-1")
	require.NoError(t, conn.Invoke(ctx, "/"+ServiceName+"/Refund", req, &resp))
	require.NotNil(t, resp.Refund)
	assert.Equal(t, "refund-1", resp.Refund.RefundId)
	assert.Equal(t, int64(250), resp.Refund.Amount)
	assert.Equal(t, "submitted", resp.Refund.Status)
}
