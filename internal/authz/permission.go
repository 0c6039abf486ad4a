package authz

import "sort"

// Permission names one controllable action, e.g. "pages.delete"
type Permission string

// Permission catalogue
const (
	// User management
	UsersView   Permission = "users.view"
	UsersCreate Permission = "users.create"
	UsersEdit   Permission = "users.edit"
	UsersDelete Permission = "users.delete"
	UsersRoles  Permission = "users.roles"
	// Pages
	PagesView    Permission = "pages.view"
	PagesCreate  Permission = "pages.create"
	PagesEdit    Permission = "pages.edit"
	PagesPublish Permission = "pages.publish"
	PagesDelete  Permission = "pages.delete"
	// Announcements
	AnnouncementsCreate Permission = "announcements.create"
	AnnouncementsEdit   Permission = "announcements.edit"
	AnnouncementsDelete Permission = "announcements.delete"
	// Forum
	ForumModerate Permission = "forum.moderate"
	// Artists
	ArtistsCreate  Permission = "artists.create"
	ArtistsEditAll Permission = "artists.edit.all"
	ArtistsEditOwn Permission = "artists.edit.own"
	ArtistsDelete  Permission = "artists.delete"
	// Messaging
	MessagesSend Permission = "messages.send"
	// Privacy
	ConsentAuditView Permission = "consent.audit.view"
)

// rolePermissions is written out in full for every role so each role's
// capabilities can be read without following an inheritance chain.
// Never mutated after package init.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleOwner: set(
		UsersView, UsersCreate, UsersEdit, UsersDelete, UsersRoles,
		PagesView, PagesCreate, PagesEdit, PagesPublish, PagesDelete,
		AnnouncementsCreate, AnnouncementsEdit, AnnouncementsDelete,
		ForumModerate,
		ArtistsCreate, ArtistsEditAll, ArtistsEditOwn, ArtistsDelete,
		MessagesSend,
		ConsentAuditView,
	),
	RoleAdmin: set(
		UsersView, UsersCreate, UsersEdit,
		PagesView, PagesCreate, PagesEdit, PagesPublish, PagesDelete,
		AnnouncementsCreate, AnnouncementsEdit, AnnouncementsDelete,
		ForumModerate,
		ArtistsCreate, ArtistsEditAll, ArtistsEditOwn, ArtistsDelete,
		MessagesSend,
		ConsentAuditView,
	),
	RoleAccountExecutive: set(
		UsersView,
		PagesView, PagesCreate, PagesEdit,
		AnnouncementsCreate, AnnouncementsEdit,
		ArtistsCreate, ArtistsEditAll, ArtistsEditOwn,
		MessagesSend,
	),
	RoleBand: set(
		ArtistsEditOwn,
		MessagesSend,
	),
}

func set(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// HasPermission reports whether perm is granted to role.
// Unknown roles and permissions evaluate to false.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// CanEditArtist combines the blanket edit permission with the ownership check.
// Other ownership-scoped checks should follow the same shape.
func CanEditArtist(role Role, isOwnProfile bool) bool {
	if HasPermission(role, ArtistsEditAll) {
		return true
	}
	return isOwnProfile && HasPermission(role, ArtistsEditOwn)
}

// Permissions returns a sorted copy of the permissions held by role
func Permissions(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, 0, len(perms))
	for p := range perms {
		out = append(out, p)
	}
	sortPermissions(out)
	return out
}

// AllPermissions returns every permission granted to at least one role
func AllPermissions() []Permission {
	seen := map[Permission]struct{}{}
	for _, perms := range rolePermissions {
		for p := range perms {
			seen[p] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sortPermissions(out)
	return out
}

func sortPermissions(perms []Permission) {
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
}
