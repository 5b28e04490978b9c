// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holomush/holoauth/internal/auth"
	authpostgres "github.com/holomush/holoauth/internal/auth/postgres"
	"github.com/holomush/holoauth/internal/observability"
	"github.com/holomush/holoauth/internal/session"
	sessionredis "github.com/holomush/holoauth/internal/session/redis"
	"github.com/holomush/holoauth/pkg/errutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Account flows over PostgreSQL", func() {
	var (
		ctx     context.Context
		svc     *auth.Service
		metrics *observability.Metrics
	)

	BeforeEach(func() {
		ctx = context.Background()
		env.truncate()
		metrics = observability.NewMetrics(prometheus.NewRegistry())

		var err error
		svc, err = auth.NewServiceWithLogger(
			authpostgres.NewAccountRepository(env.pool),
			auth.NewArgon2idHasher(),
			quiet,
			auth.WithRecorder(metrics),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("logs in, resolves and logs out", func() {
		account, err := svc.Register(ctx, "carol@example.com", "correct horse")
		Expect(err).NotTo(HaveOccurred())

		sessionID, ok := svc.Login(ctx, "CAROL@example.com", "correct horse")
		Expect(ok).To(BeTrue())

		resolved, ok := svc.Resolve(ctx, sessionID)
		Expect(ok).To(BeTrue())
		Expect(resolved.ID).To(Equal(account.ID))

		svc.Logout(ctx, account.ID)
		_, ok = svc.Resolve(ctx, sessionID)
		Expect(ok).To(BeFalse())

		Expect(testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues(auth.ResultSuccess))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues(auth.ResultSuccess))).To(Equal(1.0))
	})

	It("rejects a second registration for the same email", func() {
		_, err := svc.Register(ctx, "dave@example.com", "pw-one")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Register(ctx, "Dave@Example.com", "pw-two")
		Expect(errutil.Code(err)).To(Equal("AUTH_ALREADY_EXISTS"))
		Expect(testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues(auth.ResultConflict))).To(Equal(1.0))
	})

	It("resets a password with a one-time token", func() {
		_, err := svc.Register(ctx, "erin@example.com", "old-password")
		Expect(err).NotTo(HaveOccurred())

		token, err := svc.RequestReset(ctx, "erin@example.com")
		Expect(err).NotTo(HaveOccurred())

		again, err := svc.RequestReset(ctx, "erin@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(token))

		Expect(svc.UpdatePassword(ctx, token, "new-password")).To(Succeed())
		Expect(errutil.Code(svc.UpdatePassword(ctx, token, "newer-password"))).To(Equal("AUTH_INVALID_TOKEN"))

		Expect(svc.ValidLogin(ctx, "erin@example.com", "old-password")).To(BeFalse())
		Expect(svc.ValidLogin(ctx, "erin@example.com", "new-password")).To(BeTrue())
	})

	It("reports ready while the database answers", func() {
		Expect(svc.Ping(ctx)).To(Succeed())
	})
})

var _ = Describe("Session stack with a Redis mirror", func() {
	var (
		ctx     context.Context
		now     time.Time
		metrics *observability.Metrics
		records *sessionredis.RecordRepository
		stack   *session.PersistentStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		env.truncate()
		now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		metrics = observability.NewMetrics(prometheus.NewRegistry())
		records = sessionredis.NewRecordRepository(env.redis)

		expiring := session.NewExpiringStore(session.NewMemoryStore(), time.Minute,
			session.WithClock(clock),
			session.WithLogger(quiet),
			session.WithEvictHook(metrics.SessionExpired),
		)
		stack = session.NewPersistentStore(expiring, records,
			session.WithClock(clock),
			session.WithLogger(quiet),
		)
	})

	It("mirrors create and destroy", func() {
		id, ok := stack.Create(ctx, "user-1")
		Expect(ok).To(BeTrue())

		exists, err := stack.Exists(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		owner, ok := stack.Resolve(ctx, id)
		Expect(ok).To(BeTrue())
		Expect(owner).To(Equal("user-1"))

		Expect(stack.Destroy(ctx, id)).To(BeTrue())
		exists, err = stack.Exists(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
		Expect(stack.Destroy(ctx, id)).To(BeFalse())
	})

	It("expires sessions lazily and counts the eviction", func() {
		id, ok := stack.Create(ctx, "user-2")
		Expect(ok).To(BeTrue())

		now = now.Add(59 * time.Second)
		_, ok = stack.Resolve(ctx, id)
		Expect(ok).To(BeTrue())

		now = now.Add(2 * time.Second)
		_, ok = stack.Resolve(ctx, id)
		Expect(ok).To(BeFalse())
		Expect(testutil.ToFloat64(metrics.SessionExpirationsTotal)).To(Equal(1.0))
	})
})
