package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/apiclient"
	"github.com/jonathan/resume-studio/internal/apitest"
	"github.com/jonathan/resume-studio/internal/tokenstore"
	"github.com/jonathan/resume-studio/internal/types"
)

type fixture struct {
	backend *apitest.Backend
	client  *apiclient.Client
	store   *tokenstore.Memory
	gate    *Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New(t)
	backend.AddUser("ada", "ada@example.com", "secret1")

	client, err := apiclient.New(backend.URL, nil)
	require.NoError(t, err)

	store := tokenstore.NewMemory()
	return &fixture{
		backend: backend,
		client:  client,
		store:   store,
		gate:    NewGate(client, store, zerolog.Nop()),
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.gate.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
}

func TestLogin_PersistsToken(t *testing.T) {
	f := newFixture(t)

	user, err := f.gate.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, f.gate.LoggedIn())

	stored, err := f.store.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	token, err := f.gate.Token()
	require.NoError(t, err)
	assert.Equal(t, token, string(stored))
}

func TestLogin_InvalidInputNoNetwork(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Login(context.Background(), "", "")

	var validationErr *apiclient.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, f.backend.TotalRequests())
	assert.False(t, f.gate.LoggedIn())
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Login(context.Background(), "ada@example.com", "nope")

	var serverErr *apiclient.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.False(t, f.gate.LoggedIn())
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user, err := f.gate.Register(context.Background(), types.RegisterRequest{
		Username: "grace", Email: "grace@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)
	assert.True(t, f.gate.LoggedIn())
}

func TestToken_LoggedOutFailsFast(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Token()

	assert.True(t, apiclient.IsAuth(err))
}

func TestToken_ExpiredJWT(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.gate.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, err := f.gate.Token()
	assert.True(t, apiclient.IsAuth(err))
}

func TestToken_OpaqueTokenNeverExpiresLocally(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), TokenKey, []byte("opaque")))
	f.backend.Respond(http.MethodGet, "/api/auth/profile", apitest.Override{Status: 200, Body: `{"user":{"id":1,"username":"ada"}}`})

	_, err := f.gate.Restore(context.Background())
	require.NoError(t, err)

	token, err := f.gate.Token()
	require.NoError(t, err)
	assert.Equal(t, "opaque", token)
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture) []byte
		wantUser  bool
		wantErr   bool
		wantStore bool
		requests  int
	}{
		{
			name:     "no stored token",
			setup:    func(f *fixture) []byte { return nil },
			requests: 0,
		},
		{
			name:      "valid token",
			setup:     func(f *fixture) []byte { return []byte(f.backend.TokenFor("ada@example.com")) },
			wantUser:  true,
			wantStore: true,
			requests:  1,
		},
		{
			name:     "expired token cleared locally",
			setup:    func(f *fixture) []byte { return []byte(f.backend.MintToken(1, -time.Minute)) },
			requests: 0,
		},
		{
			name: "revoked token cleared",
			setup: func(f *fixture) []byte {
				token := f.backend.TokenFor("ada@example.com")
				f.backend.Revoke(token)
				return []byte(token)
			},
			wantErr:  true,
			requests: 1,
		},
		{
			name: "server failure clears token",
			setup: func(f *fixture) []byte {
				f.backend.Fail(http.MethodGet, "/api/auth/profile", http.StatusInternalServerError, "boom")
				return []byte(f.backend.TokenFor("ada@example.com"))
			},
			wantErr:  true,
			requests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			if token := tt.setup(f); token != nil {
				require.NoError(t, f.store.Set(ctx, TokenKey, token))
			}

			user, err := f.gate.Restore(ctx)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUser, user != nil)
			assert.Equal(t, tt.wantUser, f.gate.LoggedIn())

			stored, err := f.store.Get(ctx, TokenKey)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStore, stored != nil)
			assert.Equal(t, tt.requests, f.backend.Count(http.MethodGet, "/api/auth/profile"))
		})
	}
}

func TestCheck_401LogsOutExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	var logouts int
	f.gate.OnLogout(func() { logouts++ })

	token, err := f.gate.Token()
	require.NoError(t, err)
	f.backend.Revoke(token)

	err = f.gate.Authorized(ctx, func(token string) error {
		_, err := f.client.ListResumes(ctx, token)
		return err
	})
	assert.True(t, apiclient.IsAuth(err))
	assert.Equal(t, 1, logouts)
	assert.False(t, f.gate.LoggedIn())

	stored, err := f.store.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Nil(t, stored)

	before := f.backend.TotalRequests()
	err = f.gate.Authorized(ctx, func(token string) error {
		t.Fatal("must not run without a session")
		return nil
	})
	assert.True(t, apiclient.IsAuth(err))
	assert.Equal(t, before, f.backend.TotalRequests(), "no request after logout")
	assert.Equal(t, 1, logouts)
}

func TestLogout_ConcurrentCallsNotifyOnce(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var (
		mu      sync.Mutex
		logouts int
	)
	f.gate.OnLogout(func() {
		mu.Lock()
		logouts++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.gate.Check(context.Background(), &apiclient.AuthError{Message: "expired"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, logouts)
}

func TestCheck_NonAuthErrorsKeepSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	err := f.gate.Check(context.Background(), &apiclient.ServerError{Status: 500, Message: "boom"})

	assert.Error(t, err)
	assert.True(t, f.gate.LoggedIn())
	assert.NoError(t, f.gate.Check(context.Background(), nil))
}

type failingStore struct {
	tokenstore.Memory
}

func (s *failingStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestLogin_StoreFailure(t *testing.T) {
	f := newFixture(t)
	gate := NewGate(f.client, &failingStore{}, zerolog.Nop())

	_, err := gate.Login(context.Background(), "ada@example.com", "secret1")

	assert.ErrorContains(t, err, "disk full")
	assert.False(t, gate.LoggedIn())
}
