package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository/repotest"
	"github.com/andressep95/gameplan-api/pkg/hash"
	"github.com/andressep95/gameplan-api/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Abc123!@"

type testEnv struct {
	store  *repotest.Store
	tokens *jwt.TokenService
	hasher *hash.Hasher
	auth   *AuthService
	users  *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := jwt.NewTokenService("test-secret", 7*24*time.Hour, 30*24*time.Hour, "gameplan-api", "gameplan-client")
	require.NoError(t, err)

	store := repotest.NewStore()
	hasher := hash.NewHasher(hash.Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1})

	return &testEnv{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		auth:   NewAuthService(store, tokens, hasher, nil, zap.NewNop()),
		users:  NewUserService(store),
	}
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     "a@x.com",
		Password:  strongPassword,
		BirthDate: "1990-05-01",
		Country:   "ES",
	}
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, code, appErr.Code)
}

func TestRegister_CreatesUserSessionAndToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Register(ctx, validRegister(), ClientInfo{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", res.User.Email)
	assert.True(t, env.store.HasSession(res.SessionID))

	claims, err := env.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	// default expiry, and the session dies with the token
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), res.ExpiresAt, time.Minute)
	ok, err := env.store.Sessions().Validate(ctx, res.SessionID, res.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored := env.store.User(res.User.ID)
	assert.NotEqual(t, strongPassword, stored.PasswordHash)
	assert.True(t, stored.IsActive)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, validRegister(), ClientInfo{})
	requireCode(t, err, http.StatusConflict, apperror.CodeUserExists)
	assert.Equal(t, 1, env.store.UserCount())
}

func TestRegister_ConcurrentDuplicateMapsToUserExists(t *testing.T) {
	env := newTestEnv(t)
	env.store.RaceOnCreate = true

	_, err := env.auth.Register(context.Background(), validRegister(), ClientInfo{})
	requireCode(t, err, http.StatusConflict, apperror.CodeUserExists)
	assert.Equal(t, 0, env.store.UserCount())
}

func TestRegisterRequest_Normalize(t *testing.T) {
	req := RegisterRequest{FirstName: "  Ana ", LastName: " Lopez", Email: " A@X.com "}
	req.Normalize()

	assert.Equal(t, "Ana", req.FirstName)
	assert.Equal(t, "Lopez", req.LastName)
	assert.Equal(t, "a@x.com", req.Email)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)

	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEqual(t, reg.SessionID, res.SessionID)
	assert.NotEqual(t, reg.Token, res.Token)
	assert.Nil(t, res.User.LastLogin)
	assert.NotNil(t, env.store.User(reg.User.ID).LastLogin)
	assert.Equal(t, 2, env.store.SessionCount(reg.User.ID))
}

func TestLogin_ReturnsPreviousLastLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)
	first := env.store.User(reg.User.ID).LastLogin
	require.NotNil(t, first)

	res, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)

	require.NotNil(t, res.User.LastLogin)
	assert.True(t, first.Equal(*res.User.LastLogin))

	stored := env.store.User(reg.User.ID).LastLogin
	require.NotNil(t, stored)
	assert.False(t, stored.Before(*first))
}

func TestLogin_RememberMeUsesLongExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	res, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword, RememberMe: true}, ClientInfo{})
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), res.ExpiresAt, time.Minute)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	_, unknown := env.auth.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: strongPassword}, ClientInfo{})
	_, wrong := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Wrong123!@"}, ClientInfo{})

	requireCode(t, unknown, http.StatusUnauthorized, apperror.CodeInvalidCredentials)
	requireCode(t, wrong, http.StatusUnauthorized, apperror.CodeInvalidCredentials)
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	env := newTestEnv(t)
	pw, err := env.hasher.Hash(strongPassword)
	require.NoError(t, err)

	env.store.AddUser(domain.User{ID: uuid.New(), Email: "gone@x.com", PasswordHash: pw, IsActive: false})

	_, err = env.auth.Login(context.Background(), LoginRequest{Email: "gone@x.com", Password: strongPassword}, ClientInfo{})
	requireCode(t, err, http.StatusForbidden, apperror.CodeAccountDeactivated)
}

func TestLogin_UpgradesLegacyBcryptHash(t *testing.T) {
	env := newTestEnv(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte(strongPassword), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.New()
	env.store.AddUser(domain.User{ID: id, Email: "old@x.com", PasswordHash: string(legacy), IsActive: true})

	_, err = env.auth.Login(context.Background(), LoginRequest{Email: "old@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)

	upgraded := env.store.User(id).PasswordHash
	assert.False(t, hash.NeedsRehash(upgraded))
	ok, err := hash.VerifyPassword(strongPassword, upgraded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogout_DeletesOnlyNamedSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, reg.User.ID, &login.SessionID))
	assert.False(t, env.store.HasSession(login.SessionID))
	assert.True(t, env.store.HasSession(reg.SessionID))

	// idempotent
	require.NoError(t, env.auth.Logout(ctx, reg.User.ID, &login.SessionID))
	require.NoError(t, env.auth.Logout(ctx, reg.User.ID, nil))
}

func TestLogout_CannotDeleteAnotherUsersSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	victim, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, uuid.New(), &victim.SessionID))
	assert.True(t, env.store.HasSession(victim.SessionID))
}

func TestRefresh_LeavesSessionsUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	token, err := env.auth.Refresh(ctx, reg.User.ID, reg.User.Email)
	require.NoError(t, err)

	claims, err := env.tokens.Verify(token.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.NotEqual(t, reg.Token, token.Token)
	assert.Equal(t, 1, env.store.SessionCount(reg.User.ID))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)
	other, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)
	third, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := env.auth.ChangePassword(ctx, reg.User.ID, &reg.SessionID, ChangePasswordRequest{
			CurrentPassword: "Nope123!@",
			NewPassword:     "Newpass1!",
			ConfirmPassword: "Newpass1!",
		})
		requireCode(t, err, http.StatusUnauthorized, apperror.CodeInvalidCurrentPass)
		assert.Equal(t, 3, env.store.SessionCount(reg.User.ID))
	})

	t.Run("keeps current session only", func(t *testing.T) {
		err := env.auth.ChangePassword(ctx, reg.User.ID, &reg.SessionID, ChangePasswordRequest{
			CurrentPassword: strongPassword,
			NewPassword:     "Newpass1!",
			ConfirmPassword: "Newpass1!",
		})
		require.NoError(t, err)

		assert.True(t, env.store.HasSession(reg.SessionID))
		assert.False(t, env.store.HasSession(other.SessionID))
		assert.False(t, env.store.HasSession(third.SessionID))
	})

	t.Run("new password works, old does not", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: strongPassword}, ClientInfo{})
		requireCode(t, err, http.StatusUnauthorized, apperror.CodeInvalidCredentials)

		_, err = env.auth.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Newpass1!"}, ClientInfo{})
		assert.NoError(t, err)
	})
}

func TestChangePassword_WithoutSessionRevokesAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, validRegister(), ClientInfo{})
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, reg.User.ID, nil, ChangePasswordRequest{
		CurrentPassword: strongPassword,
		NewPassword:     "Newpass1!",
		ConfirmPassword: "Newpass1!",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, env.store.SessionCount(reg.User.ID))
}
