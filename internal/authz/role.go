package authz

import "strings"

// Role is an identity tier controlling coarse-grained access
type Role string

// Role codes as constants
const (
	RoleOwner            Role = "OWNER"
	RoleAdmin            Role = "ADMIN"
	RoleAccountExecutive Role = "ACCOUNT_EXECUTIVE"
	RoleBand             Role = "BAND"
)

// RoleInfo describes a role for listing in the admin panel
type RoleInfo struct {
	Code        Role         `json:"code"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Rank        int          `json:"rank"`
	Permissions []Permission `json:"permissions"`
}

// roleRanks orders roles; higher rank = more access. Unknown roles rank 0.
var roleRanks = map[Role]int{
	RoleOwner:            4,
	RoleAdmin:            3,
	RoleAccountExecutive: 2,
	RoleBand:             1,
}

var roleNames = map[Role][2]string{
	RoleOwner:            {"Owner", "Full site access including role assignment"},
	RoleAdmin:            {"Administrator", "Manages users, content and forum moderation"},
	RoleAccountExecutive: {"Account Executive", "Manages artist rosters and content drafts"},
	RoleBand:             {"Band", "Edits its own artist profile"},
}

// orderedRoles lists roles from highest to lowest rank
var orderedRoles = []Role{RoleOwner, RoleAdmin, RoleAccountExecutive, RoleBand}

// Rank returns the numeric rank of a role, 0 when unknown
func (r Role) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a role code (case-insensitive) into a Role
func ParseRole(code string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(code)))
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// Roles returns all roles ordered from highest to lowest rank
func Roles() []Role {
	out := make([]Role, len(orderedRoles))
	copy(out, orderedRoles)
	return out
}

// HasRole reports whether role ranks at least as high as required.
// Unknown roles on either side are denied.
func HasRole(role, required Role) bool {
	if !role.Valid() || !required.Valid() {
		return false
	}
	return role.Rank() >= required.Rank()
}

// Describe returns the listing entry for every role, highest first
func Describe() []RoleInfo {
	infos := make([]RoleInfo, 0, len(orderedRoles))
	for _, r := range orderedRoles {
		names := roleNames[r]
		infos = append(infos, RoleInfo{
			Code:        r,
			Name:        names[0],
			Description: names[1],
			Rank:        r.Rank(),
			Permissions: Permissions(r),
		})
	}
	return infos
}
