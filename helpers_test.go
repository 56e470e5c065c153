package tokenAuth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/tokenAuth/password"
)

// fakeUsers is a minimal UserStore. The accounts package cannot be imported
// here without a cycle.
type fakeUsers struct {
	mu     sync.Mutex
	users  map[string]UserRecord
	nextID int64
	err    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]UserRecord{}}
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return UserRecord{}, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u UserRecord) (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return UserRecord{}, f.err
	}
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return UserRecord{}, ErrAccountExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.Username] = u
	return u, nil
}

type failingRevocations struct{}

var errBackendDown = errors.New("backend down")

func (failingRevocations) Contains(context.Context, string) (bool, error) { return false, errBackendDown }
func (failingRevocations) Revoke(context.Context, string, time.Time) error { return errBackendDown }

// testClock is a settable clock shared by the engine and its codec.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("s", 32))
	cfg.Password.BcryptCost = 4
	return cfg
}

// seedAlice registers alice/wonderland with role admin through the engine.
func seedAlice(t testing.TB, e *Engine) UserRecord {
	t.Helper()
	u, err := e.Register(context.Background(), NewUser{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Password:  "wonderland",
		Role:      "admin",
	})
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	return u
}

func newTestEngine(t testing.TB, mutate func(*Builder)) (*Engine, *fakeUsers) {
	t.Helper()
	users := newFakeUsers()
	b := New().WithConfig(testConfig()).WithUserStore(users)
	if mutate != nil {
		mutate(b)
	}
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(e.Close)
	return e, users
}

func mustBcrypt(t testing.TB) *password.Bcrypt {
	t.Helper()
	h, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return h
}
