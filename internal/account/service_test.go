package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
	"github.com/standflow/standflow/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.Stores) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)
	stores := memory.NewStores()
	return NewService(stores.Organizations, stores.Users, stores.Invitations, issuer), stores
}

func signupParams() SignupParams {
	return SignupParams{
		FirstName:        "Olive",
		LastName:         "Owner",
		Email:            "olive@acme.test",
		Password:         "correct-horse",
		OrganizationName: "Acme",
	}
}

func principalFor(u *models.User) *auth.Principal {
	return &auth.Principal{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Role:           u.Role,
		Email:          u.Email,
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates organization and owner", func(t *testing.T) {
		svc, stores := newService(t)

		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)
		require.NotEmpty(t, session.Token)
		require.Equal(t, models.RoleOwner, session.User.Role)
		require.NotNil(t, session.User.LastLoginAt)

		org, err := stores.Organizations.Get(ctx, session.User.OrganizationID)
		require.NoError(t, err)
		require.Equal(t, "Acme", org.Name)
		require.Equal(t, "UTC", org.Settings.Timezone)
	})

	t.Run("collects field-level validation errors", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Signup(ctx, SignupParams{Email: "not-an-email", Password: "short"})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		require.Contains(t, e.Fields, "firstName")
		require.Contains(t, e.Fields, "email")
		require.Contains(t, e.Fields, "password")
		require.Contains(t, e.Fields, "organizationName")
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)

		params := signupParams()
		params.OrganizationName = "Other Co"
		_, err = svc.Signup(ctx, params)
		require.True(t, errs.IsKind(err, errs.KindValidation))

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		require.Contains(t, e.Fields, "email")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)

		session, err := svc.Login(ctx, "Olive@Acme.test", "correct-horse")
		require.NoError(t, err)
		require.NotEmpty(t, session.Token)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)

		_, errUnknown := svc.Login(ctx, "nobody@acme.test", "whatever-pass")
		_, errWrong := svc.Login(ctx, "olive@acme.test", "wrong-password")
		require.True(t, errs.IsKind(errUnknown, errs.KindValidation))
		require.True(t, errs.IsKind(errWrong, errs.KindValidation))
		require.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("deactivated accounts cannot sign in", func(t *testing.T) {
		svc, stores := newService(t)
		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)

		user := session.User
		user.IsActive = false
		require.NoError(t, stores.Users.Update(ctx, user))

		_, err = svc.Login(ctx, "olive@acme.test", "correct-horse")
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})
}

func TestInvitations(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *store.Stores, *auth.Principal) {
		svc, stores := newService(t)
		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)
		return svc, stores, principalFor(session.User)
	}

	t.Run("invite and accept", func(t *testing.T) {
		svc, _, owner := setup(t)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		require.Equal(t, models.InvitationPending, inv.Status)
		require.NotEmpty(t, inv.Token)
		require.WithinDuration(t, time.Now().Add(7*24*time.Hour), inv.ExpiresAt, time.Minute)

		session, err := svc.AcceptInvitation(ctx, AcceptParams{
			Token:     inv.Token,
			FirstName: "Mel",
			LastName:  "Member",
			Password:  "another-pass",
		})
		require.NoError(t, err)
		require.Equal(t, models.RoleMember, session.User.Role)
		require.Equal(t, owner.OrganizationID, session.User.OrganizationID)

		// The token is single-use.
		_, err = svc.AcceptInvitation(ctx, AcceptParams{
			Token:     inv.Token,
			FirstName: "Mel",
			LastName:  "Member",
			Password:  "another-pass",
		})
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})

	t.Run("members cannot invite", func(t *testing.T) {
		svc, _, owner := setup(t)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		session, err := svc.AcceptInvitation(ctx, AcceptParams{Token: inv.Token, FirstName: "Mel", LastName: "Member", Password: "another-pass"})
		require.NoError(t, err)

		_, err = svc.InviteMember(ctx, principalFor(session.User), "sam@acme.test", models.RoleMember)
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})

	t.Run("rejects existing members and duplicate invites", func(t *testing.T) {
		svc, _, owner := setup(t)

		_, err := svc.InviteMember(ctx, owner, "olive@acme.test", models.RoleMember)
		require.True(t, errs.IsKind(err, errs.KindValidation))

		_, err = svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		_, err = svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleAdmin)
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("never grants the owner role", func(t *testing.T) {
		svc, _, owner := setup(t)

		_, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleOwner)
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("expired invitations are rejected and marked", func(t *testing.T) {
		svc, stores, owner := setup(t)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)

		inv.ExpiresAt = time.Now().Add(-time.Hour)
		// Recreate with the expired timestamp; memory store overwrites by id.
		require.NoError(t, stores.Invitations.Create(ctx, inv))

		_, err = svc.AcceptInvitation(ctx, AcceptParams{Token: inv.Token, FirstName: "Mel", LastName: "Member", Password: "another-pass"})
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))

		stored, err := stores.Invitations.GetByToken(ctx, inv.Token)
		require.NoError(t, err)
		require.Equal(t, models.InvitationExpired, stored.Status)
	})

	t.Run("cancelled invitations cannot be redeemed", func(t *testing.T) {
		svc, _, owner := setup(t)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		require.NoError(t, svc.CancelInvitation(ctx, owner, inv.ID))

		_, err = svc.AcceptInvitation(ctx, AcceptParams{Token: inv.Token, FirstName: "Mel", LastName: "Member", Password: "another-pass"})
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})
}

func TestMemberManagement(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *auth.Principal, *models.User) {
		svc, _ := newService(t)
		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)
		owner := principalFor(session.User)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		memberSession, err := svc.AcceptInvitation(ctx, AcceptParams{Token: inv.Token, FirstName: "Mel", LastName: "Member", Password: "another-pass"})
		require.NoError(t, err)

		return svc, owner, memberSession.User
	}

	t.Run("promotes a member to admin", func(t *testing.T) {
		svc, owner, member := setup(t)

		updated, err := svc.UpdateMemberRole(ctx, owner, member.ID, models.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, models.RoleAdmin, updated.Role)
	})

	t.Run("nobody changes their own role", func(t *testing.T) {
		svc, owner, _ := setup(t)

		_, err := svc.UpdateMemberRole(ctx, owner, owner.UserID, models.RoleAdmin)
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})

	t.Run("admins cannot modify the owner", func(t *testing.T) {
		svc, owner, member := setup(t)

		_, err := svc.UpdateMemberRole(ctx, owner, member.ID, models.RoleAdmin)
		require.NoError(t, err)
		admin := principalFor(member)
		admin.Role = models.RoleAdmin

		_, err = svc.UpdateMemberRole(ctx, admin, owner.UserID, models.RoleMember)
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})

	t.Run("removal deactivates instead of deleting", func(t *testing.T) {
		svc, owner, member := setup(t)

		require.NoError(t, svc.RemoveMember(ctx, owner, member.ID))

		members, err := svc.ListMembers(ctx, owner)
		require.NoError(t, err)
		require.Len(t, members, 1)

		_, err = svc.Login(ctx, "mel@acme.test", "another-pass")
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})

	t.Run("the owner cannot be removed", func(t *testing.T) {
		svc, owner, member := setup(t)

		_, err := svc.UpdateMemberRole(ctx, owner, member.ID, models.RoleAdmin)
		require.NoError(t, err)
		admin := principalFor(member)
		admin.Role = models.RoleAdmin

		err = svc.RemoveMember(ctx, admin, owner.UserID)
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})

	t.Run("cross-tenant members are invisible", func(t *testing.T) {
		svc, owner, _ := setup(t)

		other := &auth.Principal{
			UserID:         uuid.Must(uuid.NewV7()),
			OrganizationID: uuid.Must(uuid.NewV7()),
			Role:           models.RoleOwner,
		}
		_, err := svc.UpdateMemberRole(ctx, other, owner.UserID, models.RoleMember)
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestUpdateOrganization(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates name and settings", func(t *testing.T) {
		svc, _ := newService(t)
		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)
		owner := principalFor(session.User)

		name := "Acme Rockets"
		settings := models.DefaultOrganizationSettings()
		settings.Timezone = "Australia/Melbourne"
		org, err := svc.UpdateOrganization(ctx, owner, OrganizationUpdate{Name: &name, Settings: &settings})
		require.NoError(t, err)
		require.Equal(t, "Acme Rockets", org.Name)
		require.Equal(t, "Australia/Melbourne", org.Settings.Timezone)
	})

	t.Run("members are forbidden", func(t *testing.T) {
		svc, _ := newService(t)
		session, err := svc.Signup(ctx, signupParams())
		require.NoError(t, err)
		owner := principalFor(session.User)

		inv, err := svc.InviteMember(ctx, owner, "mel@acme.test", models.RoleMember)
		require.NoError(t, err)
		memberSession, err := svc.AcceptInvitation(ctx, AcceptParams{Token: inv.Token, FirstName: "Mel", LastName: "Member", Password: "another-pass"})
		require.NoError(t, err)

		name := "Hijacked"
		_, err = svc.UpdateOrganization(ctx, principalFor(memberSession.User), OrganizationUpdate{Name: &name})
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})
}
