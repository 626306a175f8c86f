package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

type MockLogRepo struct {
	mock.Mock
}

func (m *MockLogRepo) Put(ctx context.Context, entry *domain.LogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLogRepo) GetAll(ctx context.Context) ([]*domain.LogEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

type MockMetaRepo struct {
	mock.Mock
}

func (m *MockMetaRepo) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMetaRepo) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

type MockSubscriptionRepo struct {
	mock.Mock
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *MockSubscriptionRepo) List(ctx context.Context) ([]*domain.SubscriptionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SubscriptionRecord), args.Error(1)
}

func (m *MockSubscriptionRepo) MarkAnswered(ctx context.Context, endpoint, date string) error {
	return m.Called(ctx, endpoint, date).Error(0)
}

func (m *MockSubscriptionRepo) Delete(ctx context.Context, endpoint string) error {
	return m.Called(ctx, endpoint).Error(0)
}

type MockWindowFetcher struct {
	mock.Mock
}

func (m *MockWindowFetcher) RamadanWindow(ctx context.Context) (*domain.RamadanWindow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RamadanWindow), args.Error(1)
}

type MockWindowSource struct {
	mock.Mock
}

func (m *MockWindowSource) Fetch(ctx context.Context, year int) (*domain.RamadanWindow, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RamadanWindow), args.Error(1)
}

type MockRelayer struct {
	mock.Mock
}

func (m *MockRelayer) Checkin(ctx context.Context, relay domain.CheckinRelay) error {
	return m.Called(ctx, relay).Error(0)
}

type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) Supported() bool {
	return m.Called().Bool(0)
}

func (m *MockPlatform) RequestPermission(ctx context.Context) (domain.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Permission), args.Error(1)
}

func (m *MockPlatform) GetSubscription(ctx context.Context) (*domain.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockPlatform) Subscribe(ctx context.Context, key []byte) (*domain.Subscription, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Subscribe(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
