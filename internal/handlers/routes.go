package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted under /api.
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Board      *BoardHandler
	Invitation *InvitationHandler
	Card       *CardHandler
	Task       *TaskHandler
	Realtime   *RealtimeHandler
}

// RegisterRoutes mounts the API on api. Everything except the public auth
// endpoints needs a session or bearer token; the board surface also needs
// a verified email.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, authenticator middleware.Authenticator, access *middleware.Access) {
	requireAuth := middleware.RequireAuth(authenticator)

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/signin", h.Auth.Signin)
		auth.POST("/resend-verification", h.Auth.ResendVerification)
		auth.POST("/request-code", h.Auth.RequestCode)
		auth.POST("/verify-email", h.Auth.VerifyEmail)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
	}

	protected := api.Group("", requireAuth, middleware.RequireVerified(), middleware.RealtimeSender(h.Realtime.hub))

	users := protected.Group("/users")
	{
		users.GET("", h.User.ListUsers)
		users.GET("/search", h.User.SearchUsers)
		users.GET("/:id", h.User.GetUser)
		users.PUT("/:id", h.User.UpdateProfile)
	}

	boards := protected.Group("/boards")
	{
		boards.GET("", h.Board.ListBoards)
		boards.POST("", h.Board.CreateBoard)
		boards.GET("/:id", access.RequireBoardMember(), h.Board.GetBoard)
		boards.PUT("/:id", access.RequireBoardEditor(), h.Board.UpdateBoard)
		boards.DELETE("/:id", access.RequireBoardOwner(), h.Board.DeleteBoard)
		boards.POST("/:id/archive", access.RequireBoardOwner(), h.Board.ArchiveBoard)
		boards.POST("/:id/invite", access.RequireBoardEditor(), h.Board.InviteMember)
		boards.GET("/:id/invitations", access.RequireBoardEditor(), h.Board.ListInvitations)
		boards.PUT("/:id/members/:userId", access.RequireMemberManager(), h.Board.UpdateMemberRole)
		boards.DELETE("/:id/members/:userId", access.RequireMemberManager(), h.Board.RemoveMember)
	}

	invitations := protected.Group("/invitations")
	{
		invitations.GET("", h.Invitation.ListInvitations)
		invitations.POST("/:id/accept", h.Invitation.AcceptInvitation)
		invitations.POST("/:id/decline", h.Invitation.DeclineInvitation)
	}

	cards := protected.Group("/cards")
	{
		cards.GET("/board/:boardId", access.RequireBoardMember(), h.Card.ListCards)
		cards.POST("/board/:boardId", access.RequireBoardMember(), h.Card.CreateCard)
		cards.GET("/:id", access.RequireCardEditor(), h.Card.GetCard)
		cards.PUT("/:id", access.RequireCardEditor(), h.Card.UpdateCard)
		cards.DELETE("/:id", access.RequireCardEditor(), h.Card.DeleteCard)
		cards.POST("/:id/archive", access.RequireCardEditor(), h.Card.ArchiveCard)
		cards.POST("/:id/members", access.RequireCardEditor(), h.Card.AddMember)
		cards.DELETE("/:id/members/:userId", access.RequireCardEditor(), h.Card.RemoveMember)
		cards.POST("/:id/labels", access.RequireCardEditor(), h.Card.AddLabel)
		cards.DELETE("/:id/labels/:name", access.RequireCardEditor(), h.Card.RemoveLabel)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("/card/:cardId", access.RequireCardEditor(), h.Task.ListTasks)
		tasks.POST("/card/:cardId", access.RequireCardEditor(), h.Task.CreateTask)
		tasks.POST("/card/:cardId/generate", access.RequireCardEditor(), h.Task.GenerateTasks)
		tasks.GET("/:id", access.RequireTaskEditor(), h.Task.GetTask)
		tasks.PUT("/:id", access.RequireTaskEditor(), h.Task.UpdateTask)
		tasks.DELETE("/:id", access.RequireTaskEditor(), h.Task.DeleteTask)
		tasks.POST("/:id/assign", access.RequireTaskEditor(), h.Task.AssignTask)
		tasks.DELETE("/:id/assign/:userId", access.RequireTaskEditor(), h.Task.UnassignTask)
		tasks.POST("/:id/complete", access.RequireTaskEditor(), h.Task.CompleteTask)
		tasks.POST("/:id/reopen", access.RequireTaskEditor(), h.Task.ReopenTask)
		tasks.POST("/:id/comments", access.RequireTaskEditor(), h.Task.AddComment)
	}

	rt := protected.Group("/realtime")
	{
		rt.GET("/stream", h.Realtime.Stream)
		rt.POST("/:connId/join", h.Realtime.Join)
		rt.POST("/:connId/leave", h.Realtime.Leave)
		rt.POST("/:connId/emit", h.Realtime.Emit)
	}
}
