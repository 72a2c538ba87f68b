package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	InsufficientPermissions = errors.New("Insufficient permissions to perform this operation")
	InvalidCredentials      = errors.New("Invalid auth")
)

type UserRole int

// Higher roles carry more clearance. The zero role is read-only.
const (
	UserRoleReadOnly UserRole = iota
	UserRoleReadWrite
)

func (r UserRole) String() string {
	if r == UserRoleReadWrite {
		return "read_write"
	}
	return "read_only"
}

func ParseUserRole(s string) (UserRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read_write", "readwrite", "rw":
		return UserRoleReadWrite, nil
	case "", "read_only", "readonly", "ro":
		return UserRoleReadOnly, nil
	}
	return UserRoleReadOnly, fmt.Errorf("unknown user role %q", s)
}

func (r *UserRole) UnmarshalText(text []byte) error {
	role, err := ParseUserRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func (r UserRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

type User struct {
	Id       string
	Name     string
	Password []byte
	Role     UserRole
}

func NewUser(name, password string, role UserRole) (*User, error) {
	// password max size is 72 bytes because of bcrypt limit
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{uuid.NewString(), name, hashed, role}, nil
}

func (u *User) ValidateUser(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

func (u *User) HasClearance(r UserRole) bool { return u.Role >= r }

// Users is the set of accounts allowed to connect.
type Users []*User

// Authenticate finds the user matching name and password.
func (users Users) Authenticate(name, password string) (*User, error) {
	if name == "" {
		return nil, InvalidCredentials
	}
	for _, u := range users {
		if u.Name == name && u.ValidateUser(password) {
			return u, nil
		}
	}
	return nil, InvalidCredentials
}
