package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/permission"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"gorm.io/gorm"
)

// Access loads the board, card or task named in the route and checks the
// caller against it. The loaded model is stored in the context. A missing
// resource answers 404 before any permission check.
type Access struct {
	boards repository.BoardRepository
	cards  repository.CardRepository
	tasks  repository.TaskRepository
}

func NewAccess(boards repository.BoardRepository, cards repository.CardRepository, tasks repository.TaskRepository) *Access {
	return &Access{boards: boards, cards: cards, tasks: tasks}
}

type resource struct {
	name  string
	param string
	key   string
}

var (
	boardResource = resource{name: "Board", param: "boardId", key: constants.ContextKeyBoard}
	cardResource  = resource{name: "Card", param: "cardId", key: constants.ContextKeyCard}
	taskResource  = resource{name: "Task", param: "taskId", key: constants.ContextKeyTask}
)

// RequireBoardMember admits the owner and every board member
func (a *Access) RequireBoardMember() gin.HandlerFunc {
	return guard(boardResource, a.boards.FindByID, permission.IsBoardMemberOrOwner)
}

// RequireBoardEditor admits users who may edit the board
func (a *Access) RequireBoardEditor() gin.HandlerFunc {
	return guard(boardResource, a.boards.FindByID, permission.CanEditBoard)
}

// RequireBoardOwner admits only the board owner
func (a *Access) RequireBoardOwner() gin.HandlerFunc {
	return guard(boardResource, a.boards.FindByID, func(userID uint64, b *models.Board) bool {
		return permission.IsOwner(userID, b)
	})
}

// RequireMemberManager admits the owner and board admins
func (a *Access) RequireMemberManager() gin.HandlerFunc {
	return guard(boardResource, a.boards.FindByID, permission.CanManageMembers)
}

// RequireCardEditor admits the card owner and card members
func (a *Access) RequireCardEditor() gin.HandlerFunc {
	return guard(cardResource, a.cards.FindByID, permission.CanEditCard)
}

// RequireTaskEditor admits the task owner and assignees
func (a *Access) RequireTaskEditor() gin.HandlerFunc {
	return guard(taskResource, a.tasks.FindByID, permission.CanEditTask)
}

func guard[T any](r resource, load func(uint64) (*T, error), allow func(uint64, *T) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, r.param)
		if err != nil {
			apierrors.BadRequest(c, "Invalid "+strings.ToLower(r.name)+" ID")
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		res, err := load(id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.InternalError(c, "Failed to load "+strings.ToLower(r.name))
			return
		}
		found := err == nil

		switch permission.Decide(found, found && allow(userID, res)) {
		case permission.NotFound:
			apierrors.NotFound(c, r.name+" not found")
			return
		case permission.Forbidden:
			apierrors.Forbidden(c, "You do not have access to this "+strings.ToLower(r.name))
			return
		}

		c.Set(r.key, res)
		c.Next()
	}
}

// paramID reads the named route parameter, falling back to :id.
func paramID(c *gin.Context, name string) (uint64, error) {
	raw := c.Param(name)
	if raw == "" {
		raw = c.Param("id")
	}
	return strconv.ParseUint(raw, 10, 64)
}

// GetBoard returns the board loaded by an Access gate.
func GetBoard(c *gin.Context) (*models.Board, bool) {
	return fromContext[models.Board](c, constants.ContextKeyBoard)
}

func GetCard(c *gin.Context) (*models.Card, bool) {
	return fromContext[models.Card](c, constants.ContextKeyCard)
}

func GetTask(c *gin.Context) (*models.Task, bool) {
	return fromContext[models.Task](c, constants.ContextKeyTask)
}

func fromContext[T any](c *gin.Context, key string) (*T, bool) {
	v, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	res, ok := v.(*T)
	return res, ok
}
