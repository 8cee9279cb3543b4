package domain

import (
	"slices"
	"time"
)

type Person struct {
	ID        string
	Name      string
	Phone     string
	Street    string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is derived from the person's own street and city on every call;
// it is never stored.
func (p Person) Address() Address {
	return Address{Street: p.Street, City: p.City}
}

func (p Person) HasPhone() bool { return p.Phone != "" }

type Address struct {
	Street string
	City   string
}

type PersonInput struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Street string `json:"street"`
	City   string `json:"city"`
}

type PhoneFilter string

const (
	PhoneAny PhoneFilter = ""
	PhoneYes PhoneFilter = "YES"
	PhoneNo  PhoneFilter = "NO"
)

func ParsePhoneFilter(s string) (PhoneFilter, bool) {
	switch f := PhoneFilter(s); f {
	case PhoneAny, PhoneYes, PhoneNo:
		return f, true
	default:
		return PhoneAny, false
	}
}

func (f PhoneFilter) Match(p Person) bool {
	switch f {
	case PhoneYes:
		return p.HasPhone()
	case PhoneNo:
		return !p.HasPhone()
	default:
		return true
	}
}

type User struct {
	ID        string
	Username  string
	FriendIDs []string
	// Friends is only populated by lookups that join the person directory.
	Friends   []Person
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) HasFriend(personID string) bool {
	return slices.Contains(u.FriendIDs, personID)
}

// Session is the identity resolved for a single request. It is never persisted.
type Session struct {
	User     User
	IssuedAt time.Time
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}

type Token struct {
	Value string
}
