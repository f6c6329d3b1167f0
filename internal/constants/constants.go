package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
	ContextKeyBoard  = "board"
	ContextKeyCard   = "card"
	ContextKeyTask   = "task"

	ContextKeyRealtimeSender = "realtime_sender"

	SessionCookieName = "trello_session"
)

// Realtime
const (
	// HeaderRealtimeConnection names the caller's own stream so server events skip it.
	HeaderRealtimeConnection = "X-Realtime-Connection"

	EventCardUpdated = "card-updated"
	EventTaskMoved   = "task-moved"
	EventConnected   = "connected"

	// Server-only events. Delivering them also changes room membership.
	EventMemberRemoved = "member-removed"
	EventBoardDeleted  = "board-deleted"

	RealtimeBufferSize = 32
)

// Verification and invitations
const (
	VerificationCodeLength = 6
	DefaultCodeTTL         = 10 * time.Minute
	DefaultInvitationTTL   = 7 * 24 * time.Hour
)

// Field limits
const (
	MaxBoardNameLength        = 100
	MaxBoardDescriptionLength = 500
	MaxCardNameLength         = 200
	MaxCardDescriptionLength  = 1000
	MaxTaskTitleLength        = 200
	MaxTaskDescriptionLength  = 1000
	MaxCommentLength          = 1000
	MaxLabelNameLength        = 20
	MaxInvitationMessage      = 500
	MinUserNameLength         = 2
	MaxUserNameLength         = 50

	DefaultLabelColor = "#3B82F6"

	UserListLimit       = 50
	UserSearchLimit     = 10
	MinSearchQueryLen   = 2
	MaxAIGeneratedTasks = 20
)
