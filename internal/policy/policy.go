package policy

import (
	"errors"
)

type Role string

const (
	// RoleRegion restricts a user to an explicit region allow-list.
	RoleRegion Role = "region"
	// RoleAccount grants access to every region the credentials reach.
	RoleAccount Role = "account"
)

type User struct {
	ID              string
	Role            Role
	AllowedRegions  []string
	AllowedToolsets []string
	AllowedTools    []string
}

type Authorizer struct {
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Authenticate resolves the calling user. Stdio deployments run on the local
// operator's ambient credentials, so the default is a single account-wide user.
func (a *Authorizer) Authenticate(apiKey string) (User, error) {
	_ = apiKey
	return User{ID: "local", Role: RoleAccount}, nil
}

func (a *Authorizer) AuthorizeTool(user User, toolsetID, toolName string) error {
	if len(user.AllowedToolsets) > 0 && !contains(user.AllowedToolsets, toolsetID) {
		return errors.New("toolset not allowed")
	}
	if len(user.AllowedTools) > 0 && !contains(user.AllowedTools, toolName) {
		return errors.New("tool not allowed")
	}
	return nil
}

func (a *Authorizer) CheckRegion(user User, region string) error {
	if user.Role == RoleAccount {
		return nil
	}
	if region == "" {
		return errors.New("region required for region-scoped role")
	}
	if contains(user.AllowedRegions, region) {
		return nil
	}
	return errors.New("region not allowed")
}

func (a *Authorizer) FilterRegions(user User, regions []string) []string {
	if user.Role == RoleAccount {
		return regions
	}
	var filtered []string
	for _, region := range regions {
		if contains(user.AllowedRegions, region) {
			filtered = append(filtered, region)
		}
	}
	return filtered
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
