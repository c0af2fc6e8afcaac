// Package user holds the account record shared by customers, couriers and staff.
package user

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleCourier    Role = "courier"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

var (
	ErrUserIsNotConstructed = errors.New("User must be created via NewUser or Restore")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ParseRole returns a validation error for an unknown role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleCustomer, RoleCourier, RoleDispatcher, RoleAdmin:
		return r, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", s))
	}
}

// IsStaff reports whether the role may dispatch and administer couriers.
func (r Role) IsStaff() bool {
	return r == RoleDispatcher || r == RoleAdmin
}

// User is the single authoritative account record; role records reference it by id.
type User struct {
	id        kernel.UUID
	username  string
	email     string
	phone     string
	role      Role
	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewUser validates the contact details and role.
func NewUser(id kernel.UUID, username, email, phone string, role Role, createdAt time.Time) (*User, error) {
	u := &User{createdAt: createdAt, guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		id.Validate(),
		u.setUsername(username),
		u.setEmail(email),
		u.setPhone(phone),
		validateRole(role),
	); err != nil {
		return nil, err
	}
	u.id = id
	u.role = role
	return u, nil
}

func validateRole(role Role) error {
	_, err := ParseRole(string(role))
	return err
}

func (u *User) Validate() error {
	if u == nil {
		return ErrUserIsNotConstructed
	}
	return u.guard.Validate(ErrUserIsNotConstructed)
}

func (u *User) ID() kernel.UUID      { return u.id }
func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) Phone() string        { return u.phone }
func (u *User) Role() Role           { return u.role }
func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) setUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errs.NewValueIsRequiredError("username")
	}
	if !usernamePattern.MatchString(username) {
		return errs.NewValueIsInvalidErrorWithCause("username", fmt.Errorf("%q has invalid characters or length", username))
	}
	u.username = username
	return nil
}

func (u *User) setEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errs.NewValueIsRequiredError("email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errs.NewValueIsInvalidErrorWithCause("email", fmt.Errorf("%q is not an address", email))
	}
	u.email = email
	return nil
}

func (u *User) setPhone(phone string) error {
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if phone == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	if !phonePattern.MatchString(phone) {
		return errs.NewValueIsInvalidErrorWithCause("phone", fmt.Errorf("%q is not a phone number", phone))
	}
	u.phone = phone
	return nil
}
