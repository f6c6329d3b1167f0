package models

import "time"

// Member lists hold at most one entry per user. The helpers below keep that
// true; storage does not enforce it.

// AddMember adds userID with role, or changes the role of an existing entry.
func (b *Board) AddMember(userID uint64, role BoardRole, now time.Time) {
	for i := range b.Members {
		if b.Members[i].UserID == userID {
			b.Members[i].Role = role
			b.LastActivity = now
			return
		}
	}
	b.Members = append(b.Members, BoardMember{
		BoardID:  b.ID,
		UserID:   userID,
		Role:     role,
		JoinedAt: now,
	})
	b.LastActivity = now
}

// RemoveMember drops every entry for userID. Removing a non-member is a no-op
// apart from the activity timestamp.
func (b *Board) RemoveMember(userID uint64, now time.Time) {
	kept := b.Members[:0]
	for _, m := range b.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	b.Members = kept
	b.LastActivity = now
}

// AddMember adds userID to the card. Existing members are left untouched.
func (c *Card) AddMember(userID uint64, now time.Time) {
	for _, m := range c.Members {
		if m.UserID == userID {
			return
		}
	}
	c.Members = append(c.Members, CardMember{
		CardID:     c.ID,
		UserID:     userID,
		AssignedAt: now,
	})
	c.LastActivity = now
}

func (c *Card) RemoveMember(userID uint64, now time.Time) {
	kept := c.Members[:0]
	for _, m := range c.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	c.Members = kept
	c.LastActivity = now
}

// AssignUser assigns userID to the task. Existing assignees are left untouched.
func (t *Task) AssignUser(userID uint64, now time.Time) {
	for _, a := range t.AssignedTo {
		if a.UserID == userID {
			return
		}
	}
	t.AssignedTo = append(t.AssignedTo, TaskAssignment{
		TaskID:     t.ID,
		UserID:     userID,
		AssignedAt: now,
	})
	t.LastActivity = now
}

func (t *Task) UnassignUser(userID uint64, now time.Time) {
	kept := t.AssignedTo[:0]
	for _, a := range t.AssignedTo {
		if a.UserID != userID {
			kept = append(kept, a)
		}
	}
	t.AssignedTo = kept
	t.LastActivity = now
}
