package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"DirectoryServer/internal/domain"
)

func newAuthorizer(t *testing.T) *Authorizer {
	t.Helper()
	a, err := New(context.Background())
	require.NoError(t, err)
	return a
}

func TestAuthorize_PublicOperations(t *testing.T) {
	a := newAuthorizer(t)
	ctx := context.Background()

	for _, op := range []string{"personCount", "allPersons", "findPerson", "findPersonById", "me", "createUser", "login", "personAdded"} {
		require.NoError(t, a.Authorize(ctx, op, nil, ""), op)
	}
}

func TestAuthorize_RequiresSession(t *testing.T) {
	a := newAuthorizer(t)
	ctx := context.Background()

	for _, op := range []string{"addPerson", "editPhone", "addAsFriend"} {
		err := a.Authorize(ctx, op, nil, "")
		require.ErrorIs(t, err, domain.ErrUnauthorized, op)
	}
}

func TestAuthorize_OwnerOperations(t *testing.T) {
	a := newAuthorizer(t)
	ctx := context.Background()
	sess := &domain.Session{User: domain.User{ID: "user-1", Username: "bob"}}

	require.NoError(t, a.Authorize(ctx, "addPerson", sess, "user-1"))
	require.NoError(t, a.Authorize(ctx, "addAsFriend", sess, "user-1"))
	require.NoError(t, a.Authorize(ctx, "editPhone", sess, ""))

	err := a.Authorize(ctx, "addAsFriend", sess, "user-2")
	require.True(t, errors.Is(err, domain.ErrForbidden), "got %v", err)
}

func TestAuthorize_UnknownOperationDenied(t *testing.T) {
	a := newAuthorizer(t)
	sess := &domain.Session{User: domain.User{ID: "user-1"}}

	require.ErrorIs(t, a.Authorize(context.Background(), "dropAll", sess, "user-1"), domain.ErrForbidden)
}

func TestNewWithPolicy_RejectsBrokenPolicy(t *testing.T) {
	_, err := NewWithPolicy(context.Background(), "package directory.authz\nallow {")
	require.Error(t, err)
}
