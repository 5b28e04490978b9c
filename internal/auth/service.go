// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/holoauth/internal/session"
	"github.com/holomush/holoauth/pkg/errutil"
)

var tracer = otel.Tracer("holoauth/auth")

// Outcome labels passed to Recorder.
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Recorder receives facade outcomes for metrics.
type Recorder interface {
	Login(result string)
	Registration(result string)
	ResetIssued(result string)
	PasswordUpdated(result string)
}

type nopRecorder struct{}

func (nopRecorder) Login(string)           {}
func (nopRecorder) Registration(string)    {}
func (nopRecorder) ResetIssued(string)     {}
func (nopRecorder) PasswordUpdated(string) {}

// dummyPasswordHash is verified against when the email is unknown so that
// a miss costs the same as a wrong password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service provides register, login, session and password reset operations
// over an AccountRepository.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	resets   *ResetTokens
	logger   *slog.Logger
	metrics  Recorder
	newID    func() (string, error)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithSessionIDGenerator replaces the session identifier generator.
func WithSessionIDGenerator(fn func() (string, error)) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService creates a Service that logs to slog.Default().
func NewService(accounts AccountRepository, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, slog.Default(), opts...)
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger is required")
	}
	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		resets:   NewResetTokens(accounts),
		logger:   logger,
		metrics:  nopRecorder{},
		newID:    session.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resets exposes the reset token manager the service composes.
func (s *Service) Resets() *ResetTokens {
	return s.resets
}

// Ping checks that the account repository answers. A lookup that finds
// nothing is a healthy answer.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.accounts.GetByID(ctx, ulid.ULID{})
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	return oops.Code("AUTH_UNAVAILABLE").Wrap(err)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Register creates an account for email with a hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer span.End()

	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		s.metrics.Registration(ResultInvalid)
		fail(span, err)
		return nil, err
	}

	_, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.Registration(ResultConflict)
		return nil, oops.Code("AUTH_ALREADY_EXISTS").With("email", email).Wrap(ErrAlreadyExists)
	case !errors.Is(err, ErrNotFound):
		s.metrics.Registration(ResultError)
		err = oops.Code("AUTH_REGISTER_FAILED").With("operation", "get account by email").Wrap(err)
		fail(span, err)
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.Registration(ResultInvalid)
		fail(span, err)
		return nil, err
	}

	account, err := NewAccount(email, hash)
	if err != nil {
		s.metrics.Registration(ResultInvalid)
		fail(span, err)
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			s.metrics.Registration(ResultConflict)
			return nil, oops.Code("AUTH_ALREADY_EXISTS").With("email", email).Wrap(ErrAlreadyExists)
		}
		s.metrics.Registration(ResultError)
		err = oops.Code("AUTH_REGISTER_FAILED").With("operation", "create account").Wrap(err)
		fail(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	s.metrics.Registration(ResultSuccess)
	return account, nil
}

// authenticate verifies credentials, returning the account on a match.
// The password is verified even when the email is unknown.
func (s *Service) authenticate(ctx context.Context, email, password string) (*Account, bool) {
	target := dummyPasswordHash
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil && account != nil:
		target = account.PasswordHash
	case err != nil && !errors.Is(err, ErrNotFound):
		errutil.LogErrorContext(ctx, s.logger, "account lookup failed during login", err)
		account = nil
	default:
		account = nil
	}

	if !s.hasher.Verify(password, target) || account == nil {
		return nil, false
	}
	return account, true
}

// ValidLogin reports whether email and password match an account. No
// session is created.
func (s *Service) ValidLogin(ctx context.Context, email, password string) bool {
	ctx, span := tracer.Start(ctx, "auth.valid_login")
	defer span.End()

	_, ok := s.authenticate(ctx, email, password)
	span.SetAttributes(attribute.Bool("auth.valid", ok))
	return ok
}

// Login verifies credentials and stores a fresh session identifier on the
// account, replacing any previous one. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, bool) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	account, ok := s.authenticate(ctx, email, password)
	if !ok {
		s.metrics.Login(ResultInvalid)
		span.SetAttributes(attribute.Bool("auth.valid", false))
		return "", false
	}

	sessionID, err := s.newID()
	if err != nil {
		s.metrics.Login(ResultError)
		fail(span, err)
		errutil.LogErrorContext(ctx, s.logger, "session id generation failed", err)
		return "", false
	}

	upd := AccountUpdate{SessionID: Set(sessionID)}
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if upgraded, hashErr := s.hasher.Hash(password); hashErr == nil {
			upd.PasswordHash = Set(upgraded)
		} else {
			errutil.LogWarnContext(ctx, s.logger, "password hash upgrade failed", hashErr)
		}
	}

	if err := s.accounts.Update(ctx, account.ID, upd); err != nil {
		s.metrics.Login(ResultError)
		err = oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "store session id").
			With("account_id", account.ID.String()).
			Wrap(err)
		fail(span, err)
		errutil.LogErrorContext(ctx, s.logger, "login failed", err)
		return "", false
	}

	span.SetAttributes(
		attribute.Bool("auth.valid", true),
		attribute.String("auth.account_id", account.ID.String()),
		attribute.Bool("auth.hash_upgraded", upd.PasswordHash != nil),
	)
	s.metrics.Login(ResultSuccess)
	return sessionID, true
}

// Resolve returns the account whose current session is sessionID.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*Account, bool) {
	if sessionID == "" {
		return nil, false
	}
	ctx, span := tracer.Start(ctx, "auth.resolve")
	defer span.End()

	account, err := s.accounts.GetBySessionID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			fail(span, err)
			errutil.LogErrorContext(ctx, s.logger, "session lookup failed", err)
		}
		return nil, false
	}
	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	return account, true
}

// Logout clears the account's session. Calling it again, or for an
// unknown account, is a no-op.
func (s *Service) Logout(ctx context.Context, accountID ulid.ULID) {
	ctx, span := tracer.Start(ctx, "auth.logout",
		trace.WithAttributes(attribute.String("auth.account_id", accountID.String())))
	defer span.End()

	err := s.accounts.Update(ctx, accountID, AccountUpdate{SessionID: Clear()})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "logout for unknown account", "account_id", accountID.String())
	default:
		fail(span, err)
		errutil.LogErrorContext(ctx, s.logger, "logout failed",
			oops.Code("AUTH_LOGOUT_FAILED").With("account_id", accountID.String()).Wrap(err))
	}
}

// RequestReset returns a reset token for the account with email. A live
// token is returned as is; otherwise a new one is stored.
func (s *Service) RequestReset(ctx context.Context, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "auth.request_reset")
	defer span.End()

	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		s.metrics.ResetIssued(ResultInvalid)
		return "", oops.Code("AUTH_NOT_FOUND").Wrap(ErrNotFound)
	}
	if err != nil {
		s.metrics.ResetIssued(ResultError)
		err = oops.Code("AUTH_RESET_FAILED").With("operation", "get account by email").Wrap(err)
		fail(span, err)
		return "", err
	}

	token, err := s.resets.Issue(ctx, account)
	if err != nil {
		s.metrics.ResetIssued(ResultError)
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	s.metrics.ResetIssued(ResultSuccess)
	return token, nil
}

// UpdatePassword sets a new password for the holder of token and clears
// the token.
func (s *Service) UpdatePassword(ctx context.Context, token, newPassword string) error {
	ctx, span := tracer.Start(ctx, "auth.update_password")
	defer span.End()

	account, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			s.metrics.PasswordUpdated(ResultInvalid)
		} else {
			s.metrics.PasswordUpdated(ResultError)
			fail(span, err)
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.metrics.PasswordUpdated(ResultInvalid)
		fail(span, err)
		return err
	}

	upd := AccountUpdate{PasswordHash: Set(hash), ResetToken: Clear()}
	if err := s.accounts.Update(ctx, account.ID, upd); err != nil {
		s.metrics.PasswordUpdated(ResultError)
		err = oops.Code("AUTH_PASSWORD_UPDATE_FAILED").
			With("operation", "store password").
			With("account_id", account.ID.String()).
			Wrap(err)
		fail(span, err)
		return err
	}

	span.SetAttributes(attribute.String("auth.account_id", account.ID.String()))
	s.metrics.PasswordUpdated(ResultSuccess)
	return nil
}
