package accounts

import (
	"context"
	"strings"
	"testing"

	"item-server/internal/apperr"
	"item-server/internal/oauth"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestService() (*Service, *memoryStore, *fixedOTP) {
	store := newMemoryStore()
	codes := newFixedOTP()
	return NewService(store, codes, zerolog.Nop()), store, codes
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " a@x.com ", Password: "correct horse", DisplayName: strPtr("Ann")})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, "correct horse", *user.PasswordHash)
	require.Nil(t, user.Phone)

	got, err := svc.Login(ctx, "A@X.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "a@x.com", "wrong password")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Login(ctx, "nobody@x.com", "correct horse")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Phone:    strPtr("0048123"),
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	require.Equal(t, "must be a valid email address", fields["email"])
	require.Equal(t, "must be at least 8 characters", fields["password"])
	require.Equal(t, "must be an E.164 phone number", fields["phone"])

	_, err = svc.Register(context.Background(), RegisterInput{Email: "b@x.com", Password: strings.Repeat("p", MaxPasswordLength+1)})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegister_PasswordLimitCountsBytes(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// 40 runes, 80 bytes.
	long := strings.Repeat("é", 40)
	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: long})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []apperr.FieldError{{Field: "password", Message: "must be at most 72 bytes"}}, verr.Fields)
	require.ErrorIs(t, RegisterInput{Email: "a@x.com", Password: long}.Validate(), apperr.ErrValidation)

	fits := strings.Repeat("é", MaxPasswordLength/2)
	user, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: fits})
	require.NoError(t, err)

	_, err = svc.Login(ctx, user.Email, fits)
	require.NoError(t, err)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "A@x.com", Password: "password2"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "password3", Phone: strPtr("")})
	require.NoError(t, err, "users without phones never collide")
	_, err = svc.Register(ctx, RegisterInput{Email: "c@x.com", Password: "password4"})
	require.NoError(t, err)
}

func TestGetAndDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, got.Email)

	require.NoError(t, svc.Delete(ctx, user.ID))
	require.ErrorIs(t, svc.Delete(ctx, user.ID), apperr.ErrNotFound)
	_, err = svc.Get(ctx, user.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPhoneSignIn(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.StartPhone(ctx, "123")
	require.ErrorIs(t, err, apperr.ErrValidation)

	methodID, err := svc.StartPhone(ctx, "+48123456789")
	require.NoError(t, err)

	_, err = svc.VerifyPhone(ctx, methodID, "000000", "a@x.com")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.VerifyPhone(ctx, methodID, "123456", "")
	require.ErrorIs(t, err, apperr.ErrValidation, "a new phone needs an email")

	created, err := svc.VerifyPhone(ctx, methodID, "123456", "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "+48123456789", *created.Phone)
	require.Nil(t, created.PasswordHash)

	again, err := svc.VerifyPhone(ctx, methodID, "123456", "")
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)

	_, err = svc.VerifyPhone(ctx, "", "", "")
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
}

func TestLinkPhone(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)

	methodID, err := svc.StartPhone(ctx, "+48111222333")
	require.NoError(t, err)

	linked, err := svc.LinkPhone(ctx, user.ID, methodID, "123456")
	require.NoError(t, err)
	require.Equal(t, "+48111222333", *linked.Phone)

	other, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "password2"})
	require.NoError(t, err)
	_, err = svc.LinkPhone(ctx, other.ID, methodID, "123456")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestResolveIdentity(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	existing, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "password1"})
	require.NoError(t, err)

	linked, err := svc.ResolveIdentity(ctx, &oauth.Identity{Provider: "google", ProviderUserID: "sub-1", Email: "A@x.com", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, existing.ID, linked.ID)
	require.Len(t, store.identities, 1)

	again, err := svc.ResolveIdentity(ctx, &oauth.Identity{Provider: "google", ProviderUserID: "sub-1", Email: "changed@x.com"})
	require.NoError(t, err)
	require.Equal(t, existing.ID, again.ID)

	created, err := svc.ResolveIdentity(ctx, &oauth.Identity{Provider: "google", ProviderUserID: "sub-2", Email: "new@x.com", Name: "New"})
	require.NoError(t, err)
	require.NotEqual(t, existing.ID, created.ID)
	require.Equal(t, "New", *created.DisplayName)

	_, err = svc.ResolveIdentity(ctx, &oauth.Identity{Provider: "google", ProviderUserID: "sub-3", Email: "a@x.com", EmailVerified: false})
	require.ErrorIs(t, err, apperr.ErrConflict)
}
