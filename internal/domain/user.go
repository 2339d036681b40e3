package domain

import (
	"fmt"
	"strings"
	"time"
)

const DefaultMaxBooksAllowed int32 = 3

type User struct {
	ID           int64             `json:"id" db:"id"`
	Username     string            `json:"username" db:"username"`
	Email        string            `json:"email" db:"email"`
	PasswordHash string            `json:"-" db:"password_hash"`
	FirstName    string            `json:"first_name" db:"first_name"`
	LastName     string            `json:"last_name" db:"last_name"`
	IsStaff      bool              `json:"is_staff" db:"is_staff"`
	IsActive     bool              `json:"is_active" db:"is_active"`
	DateJoined   time.Time         `json:"date_joined" db:"date_joined"`
	Profile      MembershipProfile `json:"profile" db:"-"`
}

// MembershipProfile carries the borrowing eligibility settings of a user.
// Only administrators change MaxBooksAllowed and IsActiveMember.
type MembershipProfile struct {
	PhoneNumber     string     `json:"phone_number" db:"phone_number"`
	Address         string     `json:"address" db:"address"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	MaxBooksAllowed int32      `json:"max_books_allowed" db:"max_books_allowed"`
	IsActiveMember  bool       `json:"is_active_member" db:"is_active_member"`
	UpdatedOn       time.Time  `json:"updated_on" db:"updated_on"`
}

func NewMembershipProfile(maxBooks int32) MembershipProfile {
	if maxBooks <= 0 {
		maxBooks = DefaultMaxBooksAllowed
	}
	return MembershipProfile{
		MaxBooksAllowed: maxBooks,
		IsActiveMember:  true,
	}
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsAdmin() bool {
	return u.IsStaff
}

// CanBorrow evaluates the membership rule against the number of loans the
// user currently holds (active or overdue).
func (p MembershipProfile) CanBorrow(openLoans int) bool {
	return p.CheckBorrow(openLoans) == nil
}

func (p MembershipProfile) CheckBorrow(openLoans int) error {
	if !p.IsActiveMember {
		return fmt.Errorf("%w: membership is not active", ErrPolicyViolation)
	}
	if openLoans >= int(p.MaxBooksAllowed) {
		return fmt.Errorf("%w: you have reached your maximum book limit (%d)", ErrPolicyViolation, p.MaxBooksAllowed)
	}
	return nil
}
