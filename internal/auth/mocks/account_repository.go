// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks holds testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/holoauth/internal/auth"
)

// MockAccountRepository is a testify mock of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a mock whose expectations are asserted
// when the test ends.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func accountResult(args mock.Arguments) (*auth.Account, error) {
	var account *auth.Account
	if v := args.Get(0); v != nil {
		account = v.(*auth.Account)
	}
	return account, args.Error(1)
}

// GetByID provides a mock function.
func (m *MockAccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	return accountResult(m.Called(ctx, id))
}

// GetByEmail provides a mock function.
func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return accountResult(m.Called(ctx, email))
}

// GetBySessionID provides a mock function.
func (m *MockAccountRepository) GetBySessionID(ctx context.Context, sessionID string) (*auth.Account, error) {
	return accountResult(m.Called(ctx, sessionID))
}

// GetByResetToken provides a mock function.
func (m *MockAccountRepository) GetByResetToken(ctx context.Context, token string) (*auth.Account, error) {
	return accountResult(m.Called(ctx, token))
}

// Create provides a mock function.
func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	return m.Called(ctx, account).Error(0)
}

// Update provides a mock function.
func (m *MockAccountRepository) Update(ctx context.Context, id ulid.ULID, upd auth.AccountUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)
