//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"

	authpb "github.com/vibast-solutions/ms-go-auth/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	defaultConnectorCallerAPIKey   = "connector-caller-key"
	defaultConnectorNoAccessAPIKey = "connector-no-access-key"
	defaultConnectorAppAPIKey      = "connector-app-api-key"
	connectorAuthMockAddr          = "0.0.0.0:38084"
)

func connectorCallerAPIKey() string {
	if value := strings.TrimSpace(os.Getenv("CONNECTOR_CALLER_API_KEY")); value != "" {
		return value
	}
	return defaultConnectorCallerAPIKey
}

func connectorNoAccessAPIKey() string {
	if value := strings.TrimSpace(os.Getenv("CONNECTOR_NO_ACCESS_API_KEY")); value != "" {
		return value
	}
	return defaultConnectorNoAccessAPIKey
}

func connectorAppAPIKey() string {
	if value := strings.TrimSpace(os.Getenv("CONNECTOR_APP_API_KEY")); value != "" {
		return value
	}
	return defaultConnectorAppAPIKey
}

type connectorAuthGRPCServer struct {
	authpb.UnimplementedAuthServiceServer
}

func (s *connectorAuthGRPCServer) ValidateInternalAccess(ctx context.Context, req *authpb.ValidateInternalAccessRequest) (*authpb.ValidateInternalAccessResponse, error) {
	if incomingConnectorAPIKey(ctx) != connectorAppAPIKey() {
		return nil, status.Error(codes.Unauthenticated, "unauthorized caller")
	}

	apiKey := strings.TrimSpace(req.GetApiKey())
	switch apiKey {
	case connectorCallerAPIKey():
		return &authpb.ValidateInternalAccessResponse{
			ServiceName:   "card-frontend",
			AllowedAccess: []string{"connector-service", "ledger-service"},
		}, nil
	case connectorNoAccessAPIKey():
		return &authpb.ValidateInternalAccessResponse{
			ServiceName:   "card-frontend",
			AllowedAccess: []string{"ledger-service"},
		}, nil
	default:
		return nil, status.Error(codes.Unauthenticated, "invalid api key")
	}
}

func incomingConnectorAPIKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("x-api-key") {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func TestMain(m *testing.M) {
	if os.Getenv("CONNECTOR_CALLER_API_KEY") == "" {
		_ = os.Setenv("CONNECTOR_CALLER_API_KEY", defaultConnectorCallerAPIKey)
	}
	if os.Getenv("CONNECTOR_NO_ACCESS_API_KEY") == "" {
		_ = os.Setenv("CONNECTOR_NO_ACCESS_API_KEY", defaultConnectorNoAccessAPIKey)
	}
	if os.Getenv("CONNECTOR_APP_API_KEY") == "" {
		_ = os.Setenv("CONNECTOR_APP_API_KEY", defaultConnectorAppAPIKey)
	}

	listener, err := net.Listen("tcp", connectorAuthMockAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start connector auth grpc mock: %v\n", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	authpb.RegisterAuthServiceServer(grpcServer, &connectorAuthGRPCServer{})

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	exitCode := m.Run()

	grpcServer.GracefulStop()
	_ = listener.Close()

	os.Exit(exitCode)
}
