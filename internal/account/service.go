// Package account covers signup, login, membership and organization
// settings. Roles are organization-scoped: one owner, any number of admins
// and members.
package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

const invitationTTL = 7 * 24 * time.Hour

// Service implements account and membership operations.
type Service struct {
	orgs        store.OrganizationStore
	users       store.UserStore
	invitations store.InvitationStore
	issuer      *auth.TokenIssuer
}

// NewService creates an account service.
func NewService(orgs store.OrganizationStore, users store.UserStore, invitations store.InvitationStore, issuer *auth.TokenIssuer) *Service {
	return &Service{
		orgs:        orgs,
		users:       users,
		invitations: invitations,
		issuer:      issuer,
	}
}

// Session is the result of a successful signup, login or invitation
// acceptance.
type Session struct {
	User  *models.User
	Token string
}

// SignupParams are the fields collected by the signup form.
type SignupParams struct {
	FirstName        string
	LastName         string
	Email            string
	Password         string
	OrganizationName string
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (p *SignupParams) validate() map[string][]string {
	fields := make(map[string][]string)
	if strings.TrimSpace(p.FirstName) == "" {
		fields["firstName"] = append(fields["firstName"], "first name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		fields["lastName"] = append(fields["lastName"], "last name is required")
	}
	if !validEmail(p.Email) {
		fields["email"] = append(fields["email"], "a valid email is required")
	}
	if err := auth.ValidatePassword(p.Password); err != nil {
		fields["password"] = append(fields["password"], err.Error())
	}
	name := strings.TrimSpace(p.OrganizationName)
	if len(name) < 2 || len(name) > 100 {
		fields["organizationName"] = append(fields["organizationName"], "organization name must be 2-100 characters")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Signup creates a new organization and its owner account, and returns a
// signed-in session. Email uniqueness is checked up front; the small race
// window against a concurrent signup with the same email is closed by the
// store's unique constraint.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*Session, error) {
	if fields := params.validate(); fields != nil {
		return nil, errs.ValidationFields("signup details are invalid", fields)
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errs.ValidationFields("signup details are invalid", map[string][]string{
			"email": {"an account with this email already exists"},
		})
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	now := time.Now()
	org := &models.Organization{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      strings.TrimSpace(params.OrganizationName),
		Settings:  models.DefaultOrganizationSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, errs.Unexpected(err)
	}

	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		Email:          email,
		PasswordHash:   hash,
		Role:           models.RoleOwner,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, errs.ValidationFields("signup details are invalid", map[string][]string{
				"email": {"an account with this email already exists"},
			})
		}
		return nil, errs.Unexpected(err)
	}

	log.Info().
		Str("org_id", org.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("Organization signed up")

	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errs.Unexpected(err)
	}

	return &Session{User: user, Token: token}, nil
}

// Login authenticates an email and password. Unknown email and wrong
// password return the same message so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, errs.Validation("invalid email or password")
		}
		return nil, errs.Unexpected(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, errs.Validation("invalid email or password")
	}
	if !user.IsActive {
		return nil, errs.Forbidden("account is deactivated")
	}

	return s.startSession(ctx, user)
}

func newInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// InviteMember creates a pending invitation for an email to join the
// caller's organization as admin or member.
func (s *Service) InviteMember(ctx context.Context, p *auth.Principal, email string, role models.Role) (*models.Invitation, error) {
	if err := auth.RequirePermission(p, auth.PermMembersInvite); err != nil {
		return nil, err
	}
	if !validEmail(email) {
		return nil, errs.Validation("a valid email is required")
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, errs.Validation("invitations can only grant the admin or member role")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.OrganizationID == p.OrganizationID {
		return nil, errs.Validation("this email already belongs to a member")
	}
	if _, err := s.invitations.FindPending(ctx, p.OrganizationID, email); err == nil {
		return nil, errs.Validation("an invitation for this email is already pending")
	}

	token, err := newInvitationToken()
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	now := time.Now()
	inv := &models.Invitation{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: p.OrganizationID,
		Email:          email,
		Role:           role,
		Token:          token,
		InvitedByID:    p.UserID,
		Status:         models.InvitationPending,
		ExpiresAt:      now.Add(invitationTTL),
		CreatedAt:      now,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Info().
		Str("org_id", p.OrganizationID.String()).
		Str("invitation_id", inv.ID.String()).
		Msg("Member invited")

	return inv, nil
}

// AcceptParams are the fields collected when an invitee creates their
// account.
type AcceptParams struct {
	Token     string
	FirstName string
	LastName  string
	Password  string
}

// AcceptInvitation redeems a pending invitation, creates the member account
// and signs them in. Expired invitations are marked as such on first touch.
func (s *Service) AcceptInvitation(ctx context.Context, params AcceptParams) (*Session, error) {
	inv, err := s.invitations.GetByToken(ctx, params.Token)
	if err != nil {
		if errors.Is(err, store.ErrInvitationNotFound) {
			return nil, errs.NotFound("invitation")
		}
		return nil, errs.Unexpected(err)
	}

	if inv.IsExpired() {
		if inv.Status == models.InvitationPending {
			_ = s.invitations.UpdateStatus(ctx, inv.OrganizationID, inv.ID, models.InvitationExpired)
		}
		return nil, errs.InvalidOperation("invitation has expired")
	}

	fields := make(map[string][]string)
	if strings.TrimSpace(params.FirstName) == "" {
		fields["firstName"] = append(fields["firstName"], "first name is required")
	}
	if strings.TrimSpace(params.LastName) == "" {
		fields["lastName"] = append(fields["lastName"], "last name is required")
	}
	if err := auth.ValidatePassword(params.Password); err != nil {
		fields["password"] = append(fields["password"], err.Error())
	}
	if len(fields) > 0 {
		return nil, errs.ValidationFields("account details are invalid", fields)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: inv.OrganizationID,
		FirstName:      strings.TrimSpace(params.FirstName),
		LastName:       strings.TrimSpace(params.LastName),
		Email:          inv.Email,
		PasswordHash:   hash,
		Role:           inv.Role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, errs.Validation("an account with this email already exists")
		}
		return nil, errs.Unexpected(err)
	}

	if err := s.invitations.UpdateStatus(ctx, inv.OrganizationID, inv.ID, models.InvitationAccepted); err != nil {
		return nil, errs.Unexpected(err)
	}

	return s.startSession(ctx, user)
}

// CancelInvitation expires a pending invitation so its token can no longer
// be redeemed.
func (s *Service) CancelInvitation(ctx context.Context, p *auth.Principal, invitationID uuid.UUID) error {
	if err := auth.RequirePermission(p, auth.PermMembersManage); err != nil {
		return err
	}

	err := s.invitations.UpdateStatus(ctx, p.OrganizationID, invitationID, models.InvitationExpired)
	if err != nil {
		if errors.Is(err, store.ErrInvitationNotFound) {
			return errs.NotFound("invitation")
		}
		return errs.Unexpected(err)
	}

	return nil
}

// ListInvitations returns the organization's pending invitations.
func (s *Service) ListInvitations(ctx context.Context, p *auth.Principal) ([]*models.Invitation, error) {
	if err := auth.RequirePermission(p, auth.PermMembersManage); err != nil {
		return nil, err
	}

	invs, err := s.invitations.ListPending(ctx, p.OrganizationID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return invs, nil
}

// ListMembers returns the organization's active members ordered by name.
func (s *Service) ListMembers(ctx context.Context, p *auth.Principal) ([]*models.User, error) {
	users, err := s.users.ListByOrganization(ctx, p.OrganizationID, true)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return users, nil
}

func (s *Service) getMember(ctx context.Context, p *auth.Principal, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil || user.OrganizationID != p.OrganizationID {
		if err != nil && !errors.Is(err, store.ErrUserNotFound) {
			return nil, errs.Unexpected(err)
		}
		return nil, errs.NotFound("member")
	}
	return user, nil
}

// UpdateMemberRole changes a member's role between admin and member. Owners
// cannot be modified by admins, nobody can change their own role, and the
// owner role is never granted this way.
func (s *Service) UpdateMemberRole(ctx context.Context, p *auth.Principal, userID uuid.UUID, role models.Role) (*models.User, error) {
	if err := auth.RequirePermission(p, auth.PermMembersManage); err != nil {
		return nil, err
	}
	if userID == p.UserID {
		return nil, errs.InvalidOperation("cannot change your own role")
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, errs.Validation("role must be admin or member")
	}

	user, err := s.getMember(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleOwner && p.Role != models.RoleOwner {
		return nil, errs.Forbidden("only the owner can modify the owner account")
	}
	if user.Role == models.RoleOwner {
		return nil, errs.InvalidOperation("the owner role cannot be changed")
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(role)).
		Msg("Member role updated")

	return user, nil
}

// RemoveMember deactivates a member. The record survives so tasks and
// standup responses keep a resolvable author.
func (s *Service) RemoveMember(ctx context.Context, p *auth.Principal, userID uuid.UUID) error {
	if err := auth.RequirePermission(p, auth.PermMembersManage); err != nil {
		return err
	}
	if userID == p.UserID {
		return errs.InvalidOperation("cannot remove yourself")
	}

	user, err := s.getMember(ctx, p, userID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleOwner {
		return errs.InvalidOperation("the organization owner cannot be removed")
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return errs.Unexpected(err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Msg("Member deactivated")

	return nil
}

// GetOrganization returns the caller's organization.
func (s *Service) GetOrganization(ctx context.Context, p *auth.Principal) (*models.Organization, error) {
	org, err := s.orgs.Get(ctx, p.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, errs.NotFound("organization")
		}
		return nil, errs.Unexpected(err)
	}
	return org, nil
}

// OrganizationUpdate carries the optional fields of a settings change.
type OrganizationUpdate struct {
	Name     *string
	Domain   *string
	Settings *models.OrganizationSettings
}

// UpdateOrganization changes the organization's name, domain or settings.
func (s *Service) UpdateOrganization(ctx context.Context, p *auth.Principal, update OrganizationUpdate) (*models.Organization, error) {
	if err := auth.RequirePermission(p, auth.PermOrgManage); err != nil {
		return nil, err
	}

	org, err := s.GetOrganization(ctx, p)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if len(name) < 2 || len(name) > 100 {
			return nil, errs.Validation("organization name must be 2-100 characters")
		}
		org.Name = name
	}
	if update.Domain != nil {
		domain := strings.ToLower(strings.TrimSpace(*update.Domain))
		if domain == "" {
			org.Domain = nil
		} else {
			org.Domain = &domain
		}
	}
	if update.Settings != nil {
		org.Settings = *update.Settings
	}
	org.UpdatedAt = time.Now()

	if err := s.orgs.Update(ctx, org); err != nil {
		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			return nil, errs.Validation("this domain is already in use")
		}
		return nil, errs.Unexpected(err)
	}

	return org, nil
}
