package socialauth

import (
	"fmt"
	"strings"
)

// Profile represents the user record returned by a provider after login.
// Fields the provider did not send stay empty.
type Profile struct {
	ValidatedID     string `json:"validatedId,omitempty"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Location        string `json:"location,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Email           string `json:"email,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Contact is an address-book entry. Email is always set.
type Contact struct {
	Email       string   `json:"email"`
	OtherEmails []string `json:"otherEmails,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
}

// Permission is the breadth of access requested in the login redirect.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionAuthenticateOnly
	PermissionAll
)

func (p Permission) String() string {
	switch p {
	case PermissionAuthenticateOnly:
		return "authenticate_only"
	case PermissionAll:
		return "all"
	default:
		return "default"
	}
}

// ParsePermission maps a configuration value onto a Permission. Empty input
// yields PermissionDefault.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return PermissionDefault, nil
	case "authenticate_only", "authenticate-only":
		return PermissionAuthenticateOnly, nil
	case "all":
		return PermissionAll, nil
	}
	return PermissionDefault, fmt.Errorf("socialauth: unknown permission %q", s)
}
