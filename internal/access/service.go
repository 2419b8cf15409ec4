// Package access implements admin users, the role table and permission checks.
//
// The role table and user list live in the record store and are read on every
// check, so role edits apply immediately. The store itself does not enforce
// permissions; callers gate operations through HTTP middleware.
package access

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kycdesk/internal/access/models"
	"kycdesk/internal/events"
	"kycdesk/internal/recordstore"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/textutil"
	"kycdesk/pkg/requestcontext"
)

// TokenIssuer signs admin access tokens.
type TokenIssuer interface {
	Issue(userID, role string, ttl time.Duration) (string, time.Time, error)
}

// Service manages admin identities and permissions.
type Service struct {
	records    *recordstore.Records
	tokens     TokenIssuer
	tokenTTL   time.Duration
	publisher  events.Publisher
	logger     *slog.Logger
	bcryptCost int

	// mu serializes read-modify-write cycles on the user list and role table
	// within this process.
	mu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithTokens enables Login.
func WithTokens(issuer TokenIssuer, ttl time.Duration) Option {
	return func(s *Service) {
		s.tokens = issuer
		s.tokenTTL = ttl
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// New constructs a Service.
func New(records *recordstore.Records, opts ...Option) *Service {
	s := &Service{
		records:    records,
		logger:     slog.Default(),
		tokenTTL:   8 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Bootstrap
// -----------------------------------------------------------------------------

// Bootstrap installs the default role table when none is stored and seeds an
// administrator when no users exist.
func (s *Service) Bootstrap(ctx context.Context, adminEmail, adminPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records.RolePermissions(ctx) == nil {
		if !s.records.SaveRolePermissions(ctx, models.DefaultRolePermissions()) {
			return dErrors.New(dErrors.CodeStorage, "failed to install default role table")
		}
		s.logger.InfoContext(ctx, "installed default role table")
	}

	if len(s.records.Users(ctx)) > 0 || adminEmail == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), s.bcryptCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash seed password")
	}
	admin := models.User{
		ID:           uuid.NewString(),
		Email:        models.NormalizeEmail(adminEmail),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
		PasswordHash: string(hash),
	}
	if !s.records.SaveUsers(ctx, []models.User{admin}) {
		return dErrors.New(dErrors.CodeStorage, "failed to seed administrator")
	}
	s.logger.InfoContext(ctx, "seeded administrator", "email", admin.Email)
	return nil
}

// -----------------------------------------------------------------------------
// Permissions
// -----------------------------------------------------------------------------

// HasPermission reports whether user's role grants permission, reading the
// same table RolePermissions serves. A nil or inactive user, or a role
// without a table entry, has no permissions.
func (s *Service) HasPermission(ctx context.Context, user *models.User, permission models.Permission) bool {
	if user == nil || !user.Active {
		return false
	}
	for _, rp := range s.RolePermissions(ctx) {
		if rp.Role == user.Role {
			return rp.Has(permission)
		}
	}
	return false
}

// Authorize resolves userID and checks permission. Unknown users are denied.
func (s *Service) Authorize(ctx context.Context, userID, permission string) (bool, error) {
	user := s.findUser(s.records.Users(ctx), userID)
	if user == nil {
		return false, nil
	}
	return s.HasPermission(ctx, user, models.Permission(permission)), nil
}

// RolePermissions returns the stored role table in role order, falling back
// to the defaults when nothing is stored.
func (s *Service) RolePermissions(ctx context.Context) []models.RolePermissions {
	table := s.records.RolePermissions(ctx)
	if table == nil {
		table = models.DefaultRolePermissions()
	}
	slices.SortStableFunc(table, func(a, b models.RolePermissions) int {
		return slices.Index(models.AllRoles, a.Role) - slices.Index(models.AllRoles, b.Role)
	})
	return table
}

// UpdateRolePermissions replaces the permission set of role wholesale.
// Names are trimmed and de-duplicated; unknown permissions are rejected.
// A nil description keeps the current one.
func (s *Service) UpdateRolePermissions(ctx context.Context, role models.Role, permissions []string, description *string) (*models.RolePermissions, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+string(role))
	}
	perms, err := models.NormalizePermissions(permissions)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.RolePermissions(ctx)
	idx := slices.IndexFunc(table, func(rp models.RolePermissions) bool { return rp.Role == role })
	if idx < 0 {
		table = append(table, models.RolePermissions{Role: role})
		idx = len(table) - 1
	}
	table[idx].Permissions = perms
	if description != nil {
		table[idx].Description = strings.TrimSpace(*description)
	}
	if !s.records.SaveRolePermissions(ctx, table) {
		return nil, dErrors.New(dErrors.CodeStorage, "failed to save role permissions")
	}

	s.publish(ctx, events.RolePermissionsUpdated, string(role))
	updated := table[idx]
	return &updated, nil
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

// CreateUserInput is the data needed to add an admin.
type CreateUserInput struct {
	Email    string
	Name     string
	Role     models.Role
	Password string
	Active   bool
}

// UpdateUserInput carries optional changes; nil fields are left unchanged.
type UpdateUserInput struct {
	Email    *string
	Name     *string
	Role     *models.Role
	Active   *bool
	Password *string
}

// ListUsers returns every admin without credentials.
func (s *Service) ListUsers(ctx context.Context) []models.User {
	users := s.records.Users(ctx)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// SearchUsers matches term case-insensitively against name, email and role.
func (s *Service) SearchUsers(ctx context.Context, term string) []models.User {
	all := s.ListUsers(ctx)
	if textutil.Fold(term) == "" {
		return all
	}
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if textutil.MatchAny(term, u.Name, u.Email, string(u.Role)) {
			out = append(out, u)
		}
	}
	return out
}

// GetUser returns one admin without credentials.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := s.findUser(s.records.Users(ctx), id)
	if u == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	pub := u.Public()
	return &pub, nil
}

// CreateUser adds an admin. Emails are unique case-insensitively.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !in.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of admin, supervisor, reviewer, readonly")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      in.Role,
		Active:    in.Active,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "password cannot be used")
		}
		user.PasswordHash = string(hash)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.records.Users(ctx)
	if emailTaken(users, email, "") {
		return nil, dErrors.New(dErrors.CodeConflict, "email already in use")
	}
	if !s.records.SaveUsers(ctx, append(users, user)) {
		return nil, dErrors.New(dErrors.CodeStorage, "failed to save user")
	}

	s.publish(ctx, events.UserCreated, user.ID)
	pub := user.Public()
	return &pub, nil
}

// UpdateUser applies in to the admin with id.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.records.Users(ctx)
	u := s.findUser(users, id)
	if u == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}

	if in.Email != nil {
		email := models.NormalizeEmail(*in.Email)
		if err := models.ValidateEmail(email); err != nil {
			return nil, err
		}
		if emailTaken(users, email, id) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already in use")
		}
		u.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		u.Name = name
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "role must be one of admin, supervisor, reviewer, readonly")
		}
		u.Role = *in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "password cannot be used")
		}
		u.PasswordHash = string(hash)
	}

	if !s.records.SaveUsers(ctx, users) {
		return nil, dErrors.New(dErrors.CodeStorage, "failed to save user")
	}
	s.publish(ctx, events.UserUpdated, id)
	pub := u.Public()
	return &pub, nil
}

// DeleteUser removes the admin with id.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.records.Users(ctx)
	idx := slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
	if idx < 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if !s.records.SaveUsers(ctx, slices.Delete(users, idx, idx+1)) {
		return dErrors.New(dErrors.CodeStorage, "failed to save users")
	}
	s.publish(ctx, events.UserDeleted, id)
	return nil
}

// -----------------------------------------------------------------------------
// Login
// -----------------------------------------------------------------------------

// LoginResult is a successful admin sign-in.
type LoginResult struct {
	Token     string      `json:"access_token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

// Login checks credentials, records LastLogin and issues a token.
// Unknown, inactive and password-less accounts all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, errors.New("token issuer not configured")
	}
	email = models.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.records.Users(ctx)
	idx := slices.IndexFunc(users, func(u models.User) bool { return u.Email == email })
	if idx < 0 || !users[idx].Active || users[idx].PasswordHash == "" {
		return nil, errInvalidCredentials
	}
	u := &users[idx]
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "admin login failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", u.ID,
		)
		return nil, errInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, string(u.Role), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	now := requestcontext.Now(ctx).UTC()
	u.LastLogin = &now
	if !s.records.SaveUsers(ctx, users) {
		s.logger.WarnContext(ctx, "failed to record last login",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", u.ID,
		)
	}

	s.publish(ctx, events.AdminLogin, u.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u.Public()}, nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// findUser returns a pointer into users, or nil.
func (s *Service) findUser(users []models.User, id string) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func emailTaken(users []models.User, email, exceptID string) bool {
	for _, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Service) publish(ctx context.Context, t events.Type, subject string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		SubjectID:  subject,
		ActorID:    requestcontext.UserID(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx).UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_type", t,
			"error", err,
		)
	}
}
