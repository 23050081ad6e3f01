package model

import (
	"strings"
	"time"
)

// Gender is an account's declared gender. The empty value means not given.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderFemale      Gender = "FEMALE"
	GenderMale        Gender = "MALE"
)

// Valid reports whether g is a known gender value. Unspecified is valid.
func (g Gender) Valid() bool {
	switch g {
	case GenderUnspecified, GenderFemale, GenderMale:
		return true
	}
	return false
}

// ParseGender normalises case, so "female" and "FEMALE" are the same value.
func ParseGender(s string) Gender {
	return Gender(strings.ToUpper(strings.TrimSpace(s)))
}

// Account is keyed by Email. ModifiedDate stays nil until the first update.
type Account struct {
	ID           int64
	Name         string
	Email        string
	CreatedDate  time.Time
	ModifiedDate *time.Time
	Age          int
	Gender       Gender
	Weight       int
	Height       int
}

// AccountDraft carries the attributes of an account that does not exist yet.
type AccountDraft struct {
	Email  string
	Name   string
	Age    int
	Gender Gender
	Weight int
	Height int
}

// AccountPatch holds the payload fields an update may change. Nil fields are
// left alone. The identity key is deliberately absent.
type AccountPatch struct {
	Name   *string
	Age    *int
	Gender *Gender
	Weight *int
	Height *int
}

// Apply copies the non-nil patch fields onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Age != nil {
		a.Age = *p.Age
	}
	if p.Gender != nil {
		a.Gender = *p.Gender
	}
	if p.Weight != nil {
		a.Weight = *p.Weight
	}
	if p.Height != nil {
		a.Height = *p.Height
	}
}

// CreateAccountRequest is the registration payload; Email doubles as the credential username.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Weight   int    `json:"weight"`
	Height   int    `json:"height"`
}

// UpdateAccountRequest uses pointers so omitted fields are distinguishable from zero values.
type UpdateAccountRequest struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
	Weight *int    `json:"weight"`
	Height *int    `json:"height"`
}

// AccountResponse represents account data returned by the API.
type AccountResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	CreatedDate  time.Time  `json:"created_date"`
	ModifiedDate *time.Time `json:"modified_date"`
	Age          int        `json:"age"`
	Gender       Gender     `json:"gender,omitempty"`
	Weight       int        `json:"weight"`
	Height       int        `json:"height"`
}

// ToResponse converts an account into its API representation.
func (a Account) ToResponse() AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		CreatedDate:  a.CreatedDate,
		ModifiedDate: a.ModifiedDate,
		Age:          a.Age,
		Gender:       a.Gender,
		Weight:       a.Weight,
		Height:       a.Height,
	}
}
