package tokenAuth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAliceSessionLifecycle(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	alice := seedAlice(t, e)

	pair, err := e.Login(ctx, "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.TokenType != "bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair %+v", pair)
	}

	id, err := e.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if *id != (Identity{Username: "alice", UserID: alice.ID, Role: "admin"}) {
		t.Fatalf("unexpected identity %+v", id)
	}

	refreshed, err := e.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != "" {
		t.Fatal("refresh must not rotate the refresh token")
	}
	if _, err := e.Authenticate(ctx, refreshed.AccessToken); err != nil {
		t.Fatalf("refreshed access token rejected: %v", err)
	}

	if err := e.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := e.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected ErrRefreshRevoked, got %v", err)
	}
	if err := e.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second logout must succeed: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedAlice(t, e)

	for _, c := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"bob", "wonderland"},
		{"", ""},
	} {
		_, err := e.Login(context.Background(), c.user, c.pass)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s/%s: expected ErrInvalidCredentials, got %v", c.user, c.pass, err)
		}
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("credential errors must wrap ErrUnauthorized")
		}
	}
}

func TestLoginUserStoreFailure(t *testing.T) {
	e, users := newTestEngine(t, nil)
	users.err = errBackendDown

	_, err := e.Login(context.Background(), "alice", "wonderland")
	if !errors.Is(err, ErrUserStoreUnavailable) {
		t.Fatalf("expected ErrUserStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("store failures must not look like bad credentials")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedAlice(t, e)

	pair, err := e.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := e.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestRefreshRejectsGarbageAndTampered(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedAlice(t, e)

	pair, err := e.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = e.Refresh(context.Background(), "garbage")
	if !errors.Is(err, ErrTokenInvalid) || !errors.Is(err, jwt.ErrMalformed) {
		t.Fatalf("expected malformed token error, got %v", err)
	}

	parts := strings.Split(pair.RefreshToken, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)
	_, err = e.Refresh(context.Background(), tampered)
	if !errors.Is(err, ErrTokenInvalid) || !errors.Is(err, jwt.ErrInvalidSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestTokensFromOtherSecretRejected(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedAlice(t, e)

	cfg := testConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("o", 32))
	other, err := New().WithConfig(cfg).WithUserStore(newFakeUsers()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer other.Close()
	seedAlice(t, other)

	pair, err := other.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := e.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, jwt.ErrInvalidSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestExpiryBoundaries(t *testing.T) {
	clock := newTestClock()
	e, _ := newTestEngine(t, func(b *Builder) { b.WithClock(clock.Now) })
	seedAlice(t, e)
	ctx := context.Background()

	pair, err := e.Login(ctx, "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access := e.config.JWT.AccessTTL
	clock.Advance(access - time.Second)
	if _, err := e.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("access token must be valid before exp: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := e.Authenticate(ctx, pair.AccessToken); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("access token must expire at exp, got %v", err)
	}

	if _, err := e.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh token outlives access token: %v", err)
	}

	clock.Advance(e.config.JWT.RefreshTTL)
	if _, err := e.Refresh(ctx, pair.RefreshToken); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected expired refresh token, got %v", err)
	}
}

func TestAuthenticateAcceptsRefreshToken(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedAlice(t, e)

	pair, err := e.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	id, err := e.Authenticate(context.Background(), pair.RefreshToken)
	if err != nil || id.Username != "alice" {
		t.Fatalf("expected refresh token to decode to alice, got %+v %v", id, err)
	}
}

func TestLogoutAcceptsAnyString(t *testing.T) {
	revoked := revocation.NewMemory()
	e, _ := newTestEngine(t, func(b *Builder) { b.WithRevocationStore(revoked) })

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if err := e.Logout(context.Background(), tok); err != nil {
			t.Fatalf("logout %q: %v", tok, err)
		}
	}
	if revoked.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", revoked.Len())
	}
}

func TestRevocationBackendFailure(t *testing.T) {
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithRevocationStore(failingRevocations{})
		b.WithMetricsEnabled(true)
	})
	seedAlice(t, e)

	pair, err := e.Login(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := e.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("expected ErrRevocationUnavailable from refresh, got %v", err)
	}
	if err := e.Logout(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("expected ErrRevocationUnavailable from logout, got %v", err)
	}
	if got := e.MetricsSnapshot().Counters[MetricRevocationUnavailable]; got != 2 {
		t.Fatalf("expected 2 revocation failures, got %d", got)
	}
}

func TestRedisBackedRevocationAndThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	cfg.Security.MaxLoginAttempts = 3
	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithConfig(cfg).WithRedis(rdb)
	})
	seedAlice(t, e)
	ctx := WithClientIP(context.Background(), "10.0.0.1")

	pair, err := e.Login(ctx, "alice", "wonderland")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := e.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	key := revocation.DefaultRedisPrefix + ":" + revocation.Fingerprint(pair.RefreshToken)
	if !mr.Exists(key) {
		t.Fatalf("expected revocation key %s", key)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > cfg.JWT.RefreshTTL+time.Second {
		t.Fatalf("unexpected revocation ttl %v", ttl)
	}
	if _, err := e.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected ErrRefreshRevoked, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := e.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := e.Login(ctx, "alice", "wonderland"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}

	mr.FastForward(cfg.Security.LoginCooldownDuration + time.Second)
	if _, err := e.Login(ctx, "alice", "wonderland"); err != nil {
		t.Fatalf("login after cooldown: %v", err)
	}
}

func TestThrottleFailsClosedWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	e, _ := newTestEngine(t, func(b *Builder) {
		b.WithRedis(rdb).WithRevocationStore(revocation.NewMemory())
	})
	seedAlice(t, e)
	mr.Close()

	if _, err := e.Login(context.Background(), "alice", "wonderland"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited when throttle store is down, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	e, _ := newTestEngine(t, func(b *Builder) { b.WithMetricsEnabled(true) })
	ctx := context.Background()

	alice := seedAlice(t, e)
	if alice.ID != 1 || !alice.IsActive || alice.PasswordHash == "" || alice.PasswordHash == "wonderland" {
		t.Fatalf("unexpected record %+v", alice)
	}

	_, err := e.Register(ctx, NewUser{Username: "alice", Email: "other@example.com", Password: "x", Role: "user"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	inactive := false
	bob, err := e.Register(ctx, NewUser{Username: "bob", Email: "bob@example.com", Password: "pw", Role: "user", IsActive: &inactive})
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	if bob.IsActive {
		t.Fatal("expected bob to be inactive")
	}

	if _, err := e.Register(ctx, NewUser{Username: "carol", Password: "pw", Role: "user"}); !errors.Is(err, ErrAccountInvalid) {
		t.Fatalf("expected ErrAccountInvalid, got %v", err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricAccountCreated] != 2 || snap.Counters[MetricAccountDuplicate] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
}

func TestLoginVerifiesExistingHashFormats(t *testing.T) {
	e, users := newTestEngine(t, nil)

	hash, err := mustBcrypt(t).Hash("legacy-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := users.CreateUser(context.Background(), UserRecord{
		Username: "legacy", Email: "l@example.com", PasswordHash: hash, Role: "user", IsActive: true,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.Login(context.Background(), "legacy", "legacy-pass"); err != nil {
		t.Fatalf("login with bcrypt hash: %v", err)
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Login(context.Background(), "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithUserStore(newFakeUsers())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer e.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected Build without user store to fail")
	}
}

func TestVerifyCredentials(t *testing.T) {
	e, users := newTestEngine(t, nil)
	seedAlice(t, e)
	ctx := context.Background()

	u, err := e.VerifyCredentials(ctx, "alice", "wonderland")
	if err != nil || u.Username != "alice" || u.Role != "admin" {
		t.Fatalf("expected alice, got %+v %v", u, err)
	}
	if _, err := e.VerifyCredentials(ctx, "Alice", "wonderland"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("lookup must be case-sensitive, got %v", err)
	}
	if _, err := e.VerifyCredentials(ctx, "alice", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	users.err = errBackendDown
	if _, err := e.VerifyCredentials(ctx, "alice", "wonderland"); !errors.Is(err, ErrUserStoreUnavailable) {
		t.Fatalf("expected ErrUserStoreUnavailable, got %v", err)
	}
}
