package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/database"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/services"
	"gorm.io/gorm"
)

// captureMailer records outgoing mail instead of sending it.
type captureMailer struct {
	mu          sync.Mutex
	codes       map[string]string
	invitations []string
}

func (m *captureMailer) SendVerificationCode(address, code string, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[address] = code
	return nil
}

func (m *captureMailer) SendInvitation(address, inviter, board, role, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, address)
	return nil
}

func (m *captureMailer) code(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[address]
}

type apiTestEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	mailer *captureMailer
	hub    *realtime.Hub

	authService *services.AuthService
	users       repository.UserRepository
}

func setupAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	logger, _ := test.NewNullLogger()
	mailer := &captureMailer{codes: map[string]string{}}
	hub := realtime.NewHub(logger, 16)

	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	cardRepo := repository.NewCardRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	invRepo := repository.NewInvitationRepository(db)

	authService := services.NewAuthService(userRepo, mailer, logger, services.AuthConfig{
		BcryptCost: 4,
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
	})
	boardService := services.NewBoardService(boardRepo, hub, logger)

	h := Handlers{
		Auth:       NewAuthHandler(authService),
		User:       NewUserHandler(services.NewUserService(userRepo)),
		Board:      NewBoardHandler(boardService, services.NewInvitationService(invRepo, userRepo, boardRepo, mailer, logger, 0)),
		Invitation: NewInvitationHandler(services.NewInvitationService(invRepo, userRepo, boardRepo, mailer, logger, 0)),
		Card:       NewCardHandler(services.NewCardService(cardRepo, userRepo, hub, logger)),
		Task:       NewTaskHandler(services.NewTaskService(taskRepo, userRepo, nil, hub, logger)),
		Realtime:   NewRealtimeHandler(hub, boardService, true, logger),
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r.Group("/api"), h, authService, middleware.NewAccess(boardRepo, cardRepo, taskRepo))

	return &apiTestEnv{
		t:           t,
		db:          db,
		router:      r,
		mailer:      mailer,
		hub:         hub,
		authService: authService,
		users:       userRepo,
	}
}

func (env *apiTestEnv) createUser(email string, verified bool) *models.User {
	env.t.Helper()
	user := &models.User{Email: email, Name: strings.Split(email, "@")[0], IsActive: true, IsVerified: verified}
	require.NoError(env.t, env.users.Create(user))
	return user
}

func (env *apiTestEnv) token(user *models.User) string {
	env.t.Helper()
	token, err := env.authService.IssueToken(user.ID)
	require.NoError(env.t, err)
	return token
}

// do sends body as JSON with an optional bearer token.
func (env *apiTestEnv) do(method, path, token string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func idPath(prefix string, id uint64, suffix string) string {
	return prefix + strconv.FormatUint(id, 10) + suffix
}
