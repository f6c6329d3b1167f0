// Package permission answers access questions about boards, cards and tasks.
// Every function is pure: it looks only at the loaded resource and the actor.
package permission

import "github.com/yukikurage/mini-trello-api/internal/models"

// Owned is a resource with a single owning user.
type Owned interface {
	OwnerUserID() uint64
}

// MemberLister is a resource with a member list.
type MemberLister interface {
	MemberUserIDs() []uint64
}

func IsOwner(actorID uint64, r Owned) bool {
	return r.OwnerUserID() == actorID
}

func IsMember(actorID uint64, r MemberLister) bool {
	return containsID(r.MemberUserIDs(), actorID)
}

func IsAssigned(actorID uint64, t *models.Task) bool {
	return containsID(t.AssigneeUserIDs(), actorID)
}

// IsAdmin reports whether actorID holds the admin role on b. Owners are not
// admins unless they also appear in the member list.
func IsAdmin(actorID uint64, b *models.Board) bool {
	m, ok := b.Member(actorID)
	return ok && m.Role == models.BoardRoleAdmin
}

// CanEditBoard allows the owner, and admins or members when the board allows
// member edits.
func CanEditBoard(actorID uint64, b *models.Board) bool {
	if IsOwner(actorID, b) {
		return true
	}
	if !b.Settings.AllowMemberEdit {
		return false
	}
	m, ok := b.Member(actorID)
	return ok && m.Role.CanEdit()
}

// CanEditCard allows the card owner and card members. Board membership is
// not consulted.
func CanEditCard(actorID uint64, c *models.Card) bool {
	return IsOwner(actorID, c) || IsMember(actorID, c)
}

// CanEditTask allows the task owner and assignees.
func CanEditTask(actorID uint64, t *models.Task) bool {
	return IsOwner(actorID, t) || IsAssigned(actorID, t)
}

func IsBoardMemberOrOwner(actorID uint64, b *models.Board) bool {
	return IsOwner(actorID, b) || IsMember(actorID, b)
}

// CanManageMembers allows the owner and board admins to change roles and
// remove members.
func CanManageMembers(actorID uint64, b *models.Board) bool {
	return IsOwner(actorID, b) || IsAdmin(actorID, b)
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Decision is the outcome of a gated lookup.
type Decision int

const (
	Allow Decision = iota
	NotFound
	Forbidden
)

// Decide combines a lookup result with a permission check. A missing
// resource is reported as NotFound even when access would also be denied.
func Decide(found, allowed bool) Decision {
	switch {
	case !found:
		return NotFound
	case !allowed:
		return Forbidden
	default:
		return Allow
	}
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}
