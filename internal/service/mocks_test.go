package service

import (
	"context"

	"teambridge/internal/models"
	"teambridge/pkg/gameserv"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

// Mock game server client
type mockGameClient struct {
	mock.Mock
}

func (m *mockGameClient) PlayerOnline(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockGameClient) ResolvePlayer(ctx context.Context, name string) (*gameserv.Player, error) {
	args := m.Called(ctx, name)
	if player := args.Get(0); player != nil {
		return player.(*gameserv.Player), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGameClient) RunCommand(ctx context.Context, command string) error {
	args := m.Called(ctx, command)
	return args.Error(0)
}

func (m *mockGameClient) Broadcast(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockGameClient) Capabilities(ctx context.Context) (*gameserv.Capabilities, error) {
	args := m.Called(ctx)
	if caps := args.Get(0); caps != nil {
		return caps.(*gameserv.Capabilities), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock team capability
type mockTeamService struct {
	mock.Mock
}

func (m *mockTeamService) TeamExists(ctx context.Context, team string) (bool, error) {
	args := m.Called(ctx, team)
	return args.Bool(0), args.Error(1)
}

func (m *mockTeamService) AddMember(ctx context.Context, team, player, playerID string) error {
	args := m.Called(ctx, team, player, playerID)
	return args.Error(0)
}

func (m *mockTeamService) RemoveMember(ctx context.Context, team, player, playerID string) error {
	args := m.Called(ctx, team, player, playerID)
	return args.Error(0)
}

// Mock history recorder
type mockHistoryRecorder struct {
	mock.Mock
}

func (m *mockHistoryRecorder) RecordDispatch(ctx context.Context, record models.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
