package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Service implements the directory use cases on top of a Repository.
// Authorization is actor-based: privileged roles manage everyone, the
// rest only read and edit themselves.
type Service struct {
	repo      Repository
	bootstrap bool
}

type ServiceOption func(*Service)

// WithBootstrapRegistration switches the service to passwordless
// registration: the first account in an empty directory becomes owner,
// later registrants guests, and re-registration is idempotent. Signup is
// disabled in this mode; the two policies never share a directory.
func WithBootstrapRegistration() ServiceOption {
	return func(s *Service) { s.bootstrap = true }
}

func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("directory: repository is required")
	}
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListResult is a directory page along with the filter actually applied,
// after clamping and fallbacks.
type ListResult struct {
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total"`
	Filter   Filter    `json:"filter"`
}

// ListParams carries raw query inputs. Numbers that do not parse fall
// back to defaults, a role that does not parse drops the role filter.
type ListParams struct {
	Page    string
	PerPage string
	Role    string
	Search  string
}

// UpdateInput carries a partial account change in raw form. Nil fields
// are untouched.
type UpdateInput struct {
	Email    *string
	Password *string
	Role     *string
	Profile  *ProfileUpdate
}

// Signup creates a credentialed account. The requested role is honored
// when it parses and silently falls back to guest when it does not.
func (s *Service) Signup(ctx context.Context, email, password, roleName string, profile Profile) (Account, error) {
	if s.bootstrap {
		return Account{}, fmt.Errorf("%w: signup is disabled under bootstrap registration", ErrInvalidInput)
	}
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if err := ValidatePassword(password); err != nil {
		return Account{}, err
	}
	return s.repo.Create(ctx, NewAccount{
		Email:    email,
		Password: password,
		Role:     ParseRoleOrDefault(roleName),
		Profile:  profile,
	})
}

// Register is the bootstrap flow: no credential is stored, the first
// account in an empty directory gets owner, everyone after guest.
// Registering a known email returns the existing account unchanged.
func (s *Service) Register(ctx context.Context, email string) (Account, error) {
	if !s.bootstrap {
		return Account{}, fmt.Errorf("%w: bootstrap registration is disabled", ErrInvalidInput)
	}
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}

	if acc, err := s.repo.FindByEmail(ctx, email); err == nil {
		return acc, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	role := RoleGuest
	total, err := s.repo.Total(ctx, DefaultFilter())
	if err != nil {
		return Account{}, err
	}
	if total == 0 {
		role = RoleOwner
	}
	return s.repo.Create(ctx, NewAccount{Email: email, Role: role})
}

// Signin checks the credential and returns the account. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	acc, ok, err := s.repo.VerifyCredential(ctx, email, password)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// List returns a directory page. Privileged actors only.
func (s *Service) List(ctx context.Context, actor Account, params ListParams) (ListResult, error) {
	if !actor.Role.IsPrivileged() {
		return ListResult{}, ErrAccessDenied
	}

	page := atoiOr(params.Page, DefaultPage)
	perPage := atoiOr(params.PerPage, DefaultPerPage)

	var role *Role
	if r, err := ParseRole(params.Role); err == nil {
		role = &r
	}
	var search *string
	if params.Search != "" {
		search = &params.Search
	}

	f := NewFilter(page, perPage, role, search)

	accounts, err := s.repo.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.repo.Total(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Accounts: accounts, Total: total, Filter: f}, nil
}

// GetByID returns an account. Privileged actors read anyone, the rest
// only themselves.
func (s *Service) GetByID(ctx context.Context, actor Account, id string) (Account, error) {
	id, err := parseID(id)
	if err != nil {
		return Account{}, err
	}
	if !actor.Role.IsPrivileged() && actor.ID != id {
		return Account{}, ErrAccessDenied
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial change. Privileged actors edit anyone, the
// rest only themselves; role changes always require privilege.
func (s *Service) Update(ctx context.Context, actor Account, id string, in UpdateInput) (Account, error) {
	id, err := parseID(id)
	if err != nil {
		return Account{}, err
	}
	if !actor.Role.IsPrivileged() && actor.ID != id {
		return Account{}, ErrAccessDenied
	}

	var upd AccountUpdate
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return Account{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if in.Password != nil {
		if err := ValidatePassword(*in.Password); err != nil {
			return Account{}, err
		}
		upd.Password = in.Password
	}
	if in.Role != nil {
		if !actor.Role.IsPrivileged() {
			return Account{}, ErrAccessDenied
		}
		role, err := ParseRole(*in.Role)
		if err != nil {
			return Account{}, err
		}
		upd.Role = &role
	}
	upd.Profile = in.Profile

	return s.repo.Update(ctx, id, upd)
}

// Delete removes an account and its profile, returning the record's last
// state. Privileged actors only.
func (s *Service) Delete(ctx context.Context, actor Account, id string) (Account, error) {
	id, err := parseID(id)
	if err != nil {
		return Account{}, err
	}
	if !actor.Role.IsPrivileged() {
		return Account{}, ErrAccessDenied
	}
	return s.repo.Delete(ctx, id)
}

// Resolve loads the account behind a verified token subject. Used by the
// transport authn gate.
func (s *Service) Resolve(ctx context.Context, id string) (Account, error) {
	id, err := parseID(id)
	if err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, id)
}

func parseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: malformed account id %q", ErrInvalidInput, id)
	}
	return parsed.String(), nil
}

func atoiOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
