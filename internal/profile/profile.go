// Package profile holds the profile record written at registration and the
// read side used for role lookup.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/kerjalepas/kerjalepas/internal/account"
)

// UserType is the account role chosen at registration.
type UserType string

const (
	Freelancer UserType = "freelancer"
	Client     UserType = "client"
)

// Valid reports whether t is a known role.
func (t UserType) Valid() bool {
	return t == Freelancer || t == Client
}

// ErrNotFound is returned when no profile exists for an identity.
var ErrNotFound = errors.New("profile not found")

// Record is a row in the profiles table. ID is the owning identity's id.
type Record struct {
	ID         string
	Email      string
	FullName   string
	UserType   UserType
	Skills     []string
	HourlyRate *float64
	Company    *string
	CreatedAt  time.Time
}

var _ account.Record = Record{}

func (r Record) Table() string   { return account.TableProfiles }
func (r Record) OwnerID() string { return r.ID }

func (r Record) Columns() []string {
	return []string{"id", "email", "full_name", "user_type", "skills", "hourly_rate", "company", "created_at"}
}

func (r Record) Values() []any {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	return []any{r.ID, r.Email, r.FullName, string(r.UserType), skills, r.HourlyRate, r.Company, r.CreatedAt.UTC()}
}

// Repository reads stored profiles.
type Repository interface {
	Get(ctx context.Context, id string) (Record, error)
	UserType(ctx context.Context, id string) (UserType, error)
}
