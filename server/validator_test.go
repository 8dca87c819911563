package server

import (
	"context"
	"errors"
	"testing"

	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/indexing"
	"github.com/opentext-idol/go-configuration-idol/server/mocks"
	"github.com/opentext-idol/go-configuration-idol/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const indexErrorMessage = "Bad command or file name"

func details(protocol transport.Protocol, host string, port int) transport.Details {
	return transport.Details{Protocol: protocol, Host: host, Port: port}
}

func coordinatorConfig() ServerConfig {
	return ServerConfig{
		Protocol:     transport.HTTP,
		Host:         "example.com",
		Port:         6666,
		ProductTypes: ExactKinds(Coordinator),
	}
}

func contentConfig() ServerConfig {
	return ServerConfig{
		Protocol:          transport.HTTP,
		Host:              "example.com",
		Port:              7666,
		ProductTypes:      ExactKinds(Content),
		IndexErrorMessage: indexErrorMessage,
	}
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
	}{
		{name: "blank host", cfg: ServerConfig{Port: 6666, ProductTypes: ExactKinds(Coordinator)}},
		{name: "whitespace host", cfg: ServerConfig{Host: "  ", Port: 6666, ProductTypes: ExactKinds(Coordinator)}},
		{name: "zero port", cfg: ServerConfig{Host: "example.com", ProductTypes: ExactKinds(Coordinator)}},
		{name: "negative port", cfg: ServerConfig{Host: "example.com", Port: -1, ProductTypes: ExactKinds(Coordinator)}},
		{name: "port too large", cfg: ServerConfig{Host: "example.com", Port: 65536, ProductTypes: ExactKinds(Coordinator)}},
		{name: "no product type", cfg: ServerConfig{Host: "example.com", Port: 6666}},
		{name: "empty product type list", cfg: ServerConfig{Host: "example.com", Port: 6666, ProductTypes: ExactKinds()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no expectations: any call fails the test
			ctrl := gomock.NewController(t)
			v := NewValidator(mocks.NewMockACIClient(ctrl), mocks.NewMockIndexingClient(ctrl))

			assert.Equal(t, Result{Valid: false, Data: RequiredFieldMissing}, v.Validate(context.Background(), tt.cfg))
		})
	}
}

func TestValidateCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		gomock.InOrder(
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil),
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetChildren).Return(childrenResponse(6666, 6668), nil),
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil),
		)

		v := NewValidator(aciClient, nil)
		assert.Equal(t, Result{Valid: true}, v.Validate(ctx, coordinatorConfig()))
	})

	t.Run("service port rejects every protocol", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
		gomock.InOrder(
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(nil, errors.New("connection reset")),
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 6668), aci.GetStatus).Return(nil, errors.New("tls: handshake failure")),
		)

		v := NewValidator(aciClient, nil)
		assert.Equal(t, Result{Valid: false, Data: ServicePortError}, v.Validate(ctx, coordinatorConfig()))
	})

	t.Run("service port on https", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
		gomock.InOrder(
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(nil, errors.New("connection reset")),
			aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 6668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil),
		)

		v := NewValidator(aciClient, nil)
		resolved, err := v.FetchServerDetails(ctx, coordinatorConfig())
		require.NoError(t, err)
		assert.Equal(t, transport.HTTPS, resolved.ServiceProtocol)
		assert.Equal(t, 6668, resolved.ServicePort)
		assert.Zero(t, resolved.IndexPort)
	})

	t.Run("non-200 service port response is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(&aci.Response{StatusCode: 302}, nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 6668), aci.GetStatus).Return(nil, errors.New("refused"))

		v := NewValidator(aciClient, nil)
		assert.Equal(t, Result{Valid: false, Data: ServicePortError}, v.Validate(ctx, coordinatorConfig()))
	})

	t.Run("missing service port is never probed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(childrenResponse(6666, 0), nil)

		v := NewValidator(aciClient, nil)
		assert.Equal(t, Result{Valid: false, Data: ServicePortError}, v.Validate(ctx, coordinatorConfig()))
	})
}

func TestValidateConnectionError(t *testing.T) {
	tests := []struct {
		name string
		res  *aci.Response
		err  error
	}{
		{name: "transport error", err: errors.New("connection refused")},
		{name: "status error", err: &transport.StatusError{StatusCode: 500}},
		{name: "error envelope", res: errorResponse(aci.GetVersion, "ERRORUNKNOWNACTION")},
		{name: "not an ACI response", res: &aci.Response{StatusCode: 200, Body: []byte("hello")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			aciClient := mocks.NewMockACIClient(ctrl)
			aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(tt.res, tt.err)

			v := NewValidator(aciClient, nil)
			assert.Equal(t, Result{Valid: false, Data: ConnectionError}, v.Validate(context.Background(), coordinatorConfig()))
		})
	}
}

func TestValidateProductType(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong type lists friendly names", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("DAH"), nil)

		cfg := contentConfig()
		v := NewValidator(aciClient, mocks.NewMockIndexingClient(ctrl))

		assert.Equal(t, Result{
			Valid: false,
			Data: IncorrectServerTypeDetails{
				Validation:    IncorrectServerType,
				FriendlyNames: []string{"Content"},
			},
		}, v.Validate(ctx, cfg))
	})

	t.Run("wrong type with several allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("IDOLPROXY"), nil)

		cfg := coordinatorConfig()
		cfg.ProductTypes = ExactKinds(Content, DIH, QMS)
		v := NewValidator(aciClient, nil)

		res := v.Validate(ctx, cfg)
		assert.False(t, res.Valid)
		assert.Equal(t, []string{"Content", "DIH", "Query Manipulation Service"}, res.Data.(IncorrectServerTypeDetails).FriendlyNames)
	})

	t.Run("any of several allowed types", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("DIH,UASERVER"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil)

		cfg := coordinatorConfig()
		cfg.ProductTypes = ExactKinds(Content, Community)
		v := NewValidator(aciClient, nil)

		assert.True(t, v.Validate(ctx, cfg).Valid)
	})

	t.Run("pattern mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("AXE"), nil)

		cfg := coordinatorConfig()
		cfg.ProductTypes = MustKindPattern(".*?CONNECTOR")
		v := NewValidator(aciClient, nil)

		assert.Equal(t, Result{Valid: false, Data: RegularExpressionMatchError}, v.Validate(ctx, cfg))
	})

	t.Run("pattern match", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("FILESYSTEM_CONNECTOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(childrenResponse(7000, 7002), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7002), aci.GetStatus).Return(okResponse(aci.GetStatus), nil)

		cfg := coordinatorConfig()
		cfg.Port = 7000
		cfg.ProductTypes = MustKindPattern(".*?CONNECTOR")
		v := NewValidator(aciClient, nil)

		assert.Equal(t, Result{Valid: true}, v.Validate(ctx, cfg))
	})
}

func TestValidateDistributedConnectorUsesGetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	aciClient := mocks.NewMockACIClient(ctrl)

	gomock.InOrder(
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7000), aci.GetVersion).Return(versionResponse("DISTRIBUTED_CONNECTOR"), nil),
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7000), aci.GetStatus).Return(statusResponse(7000, 0, 7002), nil),
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7002), aci.GetStatus).Return(okResponse(aci.GetStatus), nil),
	)

	cfg := ServerConfig{
		Host:         "example.com",
		Port:         7000,
		ProductTypes: ExactKinds(DistributedConnector),
	}
	v := NewValidator(aciClient, nil)

	assert.Equal(t, Result{Valid: true}, v.Validate(context.Background(), cfg))
}

func TestValidateWithPortActions(t *testing.T) {
	ctrl := gomock.NewController(t)
	aciClient := mocks.NewMockACIClient(ctrl)

	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
	aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6666), aci.GetStatus).Return(statusResponse(6666, 0, 6668), nil)
	aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 6668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil)

	v := NewValidator(aciClient, nil, WithPortActions(PortActions{
		string(Coordinator): aci.GetStatus,
	}))

	assert.True(t, v.Validate(context.Background(), coordinatorConfig()).Valid)
}

func TestValidatePortDiscoveryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	aciClient := mocks.NewMockACIClient(ctrl)

	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(nil, errors.New("connection reset")).Times(1)

	v := NewValidator(aciClient, nil)
	assert.Equal(t, Result{Valid: false, Data: FetchPortError}, v.Validate(context.Background(), coordinatorConfig()))
}

func TestValidateIndexPort(t *testing.T) {
	ctx := context.Background()

	expectDiscovery := func(aciClient *mocks.MockACIClient, indexPort int) {
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7666), aci.GetVersion).Return(versionResponse("AXE"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7666), aci.GetStatus).Return(statusResponse(7666, indexPort, 7668), nil)
	}

	t.Run("valid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 7667)
		indexingClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7667), indexing.Command{Name: "test"}).
			Return(nil, &indexing.Error{StatusCode: 200, Message: "ERROR: " + indexErrorMessage})
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil)

		v := NewValidator(aciClient, indexingClient)
		assert.Equal(t, Result{Valid: true}, v.Validate(ctx, contentConfig()))
	})

	t.Run("index port on https", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 7667)
		gomock.InOrder(
			indexingClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7667), gomock.Any()).Return(nil, errors.New("connection reset")),
			indexingClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 7667), gomock.Any()).Return(nil, &indexing.Error{Message: indexErrorMessage}),
		)
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil)

		v := NewValidator(aciClient, indexingClient)
		resolved, err := v.FetchServerDetails(ctx, contentConfig())
		require.NoError(t, err)
		assert.Equal(t, details(transport.HTTPS, "example.com", 7667), resolved.IndexDetails())
		assert.Equal(t, details(transport.HTTP, "example.com", 7668), resolved.ServiceDetails())
	})

	t.Run("wrong error message dominates a valid service port", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 7667)
		gomock.InOrder(
			indexingClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7667), gomock.Any()).Return(nil, &indexing.Error{Message: "Something else"}),
			indexingClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 7667), gomock.Any()).Return(nil, &indexing.Error{Message: "Something else"}),
		)
		// the service port would accept, but is never reached
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7668), aci.GetStatus).Return(okResponse(aci.GetStatus), nil).Times(0)

		v := NewValidator(aciClient, indexingClient)
		assert.Equal(t, Result{Valid: false, Data: ServiceOrIndexPortError}, v.Validate(ctx, contentConfig()))
	})

	t.Run("successful index command is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 7667)
		indexingClient.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(&indexing.Result{IndexID: 1}, nil).Times(2)

		v := NewValidator(aciClient, indexingClient)
		assert.Equal(t, Result{Valid: false, Data: ServiceOrIndexPortError}, v.Validate(ctx, contentConfig()))
	})

	t.Run("service port failure with index port", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 7667)
		indexingClient.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &indexing.Error{Message: indexErrorMessage})
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTP, "example.com", 7668), aci.GetStatus).Return(nil, errors.New("refused"))
		aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 7668), aci.GetStatus).Return(nil, errors.New("refused"))

		v := NewValidator(aciClient, indexingClient)
		assert.Equal(t, Result{Valid: false, Data: ServiceOrIndexPortError}, v.Validate(ctx, contentConfig()))
	})

	t.Run("index port not reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		indexingClient := mocks.NewMockIndexingClient(ctrl)

		expectDiscovery(aciClient, 0)

		v := NewValidator(aciClient, indexingClient)
		assert.Equal(t, Result{Valid: false, Data: FetchPortError}, v.Validate(ctx, contentConfig()))

		expectDiscovery(aciClient, 0)
		_, err := v.FetchServerDetails(ctx, contentConfig())
		assert.ErrorIs(t, err, ErrMissingIndexPort)
	})

	t.Run("no indexing client", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)

		expectDiscovery(aciClient, 7667)

		v := NewValidator(aciClient, nil)
		assert.Equal(t, Result{Valid: false, Data: FetchPortError}, v.Validate(ctx, contentConfig()))
	})
}

func TestValidateWithProtocols(t *testing.T) {
	ctrl := gomock.NewController(t)
	aciClient := mocks.NewMockACIClient(ctrl)

	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
	aciClient.EXPECT().Execute(gomock.Any(), details(transport.HTTPS, "example.com", 6668), aci.GetStatus).Return(nil, errors.New("refused"))

	v := NewValidator(aciClient, nil, WithProtocols(transport.HTTPS))
	assert.Equal(t, Result{Valid: false, Data: ServicePortError}, v.Validate(context.Background(), coordinatorConfig()))
}

func TestValidateRecoversPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	aciClient := mocks.NewMockACIClient(ctrl)

	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
	aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).DoAndReturn(
		func(context.Context, transport.Details, aci.Action) (*aci.Response, error) {
			panic("unexpected state")
		},
	)

	v := NewValidator(aciClient, nil)
	assert.Equal(t, Result{Valid: false, Data: FetchPortError}, v.Validate(context.Background(), coordinatorConfig()))
}

func TestFetchServerDetailsErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("basic validation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		v := NewValidator(mocks.NewMockACIClient(ctrl), nil)

		_, err := v.FetchServerDetails(ctx, ServerConfig{Host: "example.com"})

		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("version", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(nil, errors.New("refused"))

		v := NewValidator(aciClient, nil)
		_, err := v.FetchServerDetails(ctx, coordinatorConfig())
		assert.ErrorIs(t, err, ErrConnection)
	})

	t.Run("service port", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		aciClient := mocks.NewMockACIClient(ctrl)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetVersion).Return(versionResponse("SERVICECOORDINATOR"), nil)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetChildren).Return(childrenResponse(6666, 6668), nil)
		aciClient.EXPECT().Execute(gomock.Any(), gomock.Any(), aci.GetStatus).Return(nil, errors.New("refused")).Times(2)

		v := NewValidator(aciClient, nil)
		cfg := coordinatorConfig()
		resolved, err := v.FetchServerDetails(ctx, cfg)
		assert.ErrorIs(t, err, ErrInvalidServicePort)
		assert.Equal(t, cfg, resolved)
	})
}
