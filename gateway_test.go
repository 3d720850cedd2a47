package medino

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
)

type GatewaySuite struct {
	suite.Suite

	registry *Registry
	mediator *Mediator

	commandHandler *createUserHandler
	published      atomic.Int64
}

func (s *GatewaySuite) SetupTest() {
	s.registry = NewRegistry()
	s.commandHandler = &createUserHandler{}
	s.published.Store(0)

	RegisterCommand(s.registry, s.commandHandler)
	RegisterRequestFunc(s.registry, func(ctx context.Context, req lookupUser) (*userInfo, error) {
		return &userInfo{UserID: req.UserID}, nil
	})
	RegisterNotificationFunc(s.registry, func(ctx context.Context, n userCreated) error {
		s.published.Add(1)
		return nil
	})

	s.mediator = New(s.registry)
}

func (s *GatewaySuite) TestCommandBinding() {
	g := NewGateway(s.mediator)
	BindCommand[createUser](g, "user/create")

	out, err := g.Receive(context.Background(), []byte(`{"type": "user/create", "payload": {"Name": "Ann"}}`))
	s.Require().NoError(err)
	s.Nil(out)
	s.True(s.commandHandler.called)
	s.Equal("Ann", s.commandHandler.name)
}

func (s *GatewaySuite) TestRequestBindingReturnsResponse() {
	g := NewGateway(s.mediator)
	BindRequest[lookupUser, *userInfo](g, "user/lookup")

	out, err := g.Receive(context.Background(), []byte(`{"type": "user/lookup", "payload": {"UserID": "u1"}}`))
	s.Require().NoError(err)
	s.JSONEq(`{"UserID": "u1", "IsError": false}`, string(out))
}

func (s *GatewaySuite) TestNotificationBinding() {
	g := NewGateway(s.mediator)
	BindNotification[userCreated](g, "user/created")

	_, err := g.Receive(context.Background(), []byte(`{"type": "user/created", "payload": {"UserID": "u1"}}`))
	s.Require().NoError(err)
	s.Equal(int64(1), s.published.Load())
}

func (s *GatewaySuite) TestInvalidJSON() {
	g := NewGateway(s.mediator)
	_, err := g.Receive(context.Background(), []byte(`{not json`))
	s.ErrorIs(err, ErrInvalidJSON)
}

func (s *GatewaySuite) TestMissingRoutingKey() {
	g := NewGateway(s.mediator)
	_, err := g.Receive(context.Background(), []byte(`{"payload": {}}`))
	s.Error(err)
	s.Contains(err.Error(), "routing key")
}

func (s *GatewaySuite) TestUnknownKey() {
	g := NewGateway(s.mediator)
	_, err := g.Receive(context.Background(), []byte(`{"type": "nope", "payload": {}}`))

	var notFound *BindingNotFoundError
	s.Require().True(errors.As(err, &notFound))
	s.Equal("nope", notFound.Key)
}

func (s *GatewaySuite) TestCustomPaths() {
	g := NewGateway(s.mediator, WithKeyPath("detail-type"), WithPayloadPath("detail"))
	BindCommand[createUser](g, "user/create")

	_, err := g.Receive(context.Background(), []byte(`{"detail-type": "user/create", "detail": {"Name": "Bea"}}`))
	s.Require().NoError(err)
	s.Equal("Bea", s.commandHandler.name)
}

func (s *GatewaySuite) TestMissingPayloadDispatchesZeroValue() {
	g := NewGateway(s.mediator)
	BindCommand[createUser](g, "user/create")

	_, err := g.Receive(context.Background(), []byte(`{"type": "user/create"}`))
	s.Require().NoError(err)
	s.True(s.commandHandler.called)
	s.Equal("", s.commandHandler.name)
}

func (s *GatewaySuite) TestHandlerErrorPropagates() {
	s.commandHandler.err = errors.New("insert failed")

	g := NewGateway(s.mediator)
	BindCommand[createUser](g, "user/create")

	_, err := g.Receive(context.Background(), []byte(`{"type": "user/create", "payload": {"Name": "Ann"}}`))
	s.ErrorIs(err, s.commandHandler.err)
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}
