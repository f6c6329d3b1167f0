package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateTaskInheritsBoard() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)
	card := suite.createCard(board, owner)

	hours := 3.5
	task, err := suite.tasks.CreateTask(card, CreateTaskInput{
		Title:          "  Write <i>docs</i> ",
		EstimatedHours: &hours,
		OwnerID:        owner.ID,
	})
	suite.Require().NoError(err)
	suite.Equal("Write docs", task.Title)
	suite.Equal(card.ID, task.CardID)
	suite.Equal(board.ID, task.BoardID)
	suite.Equal(models.StatusBacklog, task.Status)
	suite.Equal(models.PriorityMedium, task.Priority)
	suite.False(task.IsCompleted)

	negative := -1.0
	_, err = suite.tasks.CreateTask(card, CreateTaskInput{Title: "x", EstimatedHours: &negative, OwnerID: owner.ID})
	suite.ErrorIs(err, ErrNegativeHours)

	_, err = suite.tasks.CreateTask(card, CreateTaskInput{Title: strings.Repeat("t", 201), OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidTaskTitle)
}

func (suite *ServiceTestSuite) TestUpdateTaskAnnouncesOnlyStatusChanges() {
	owner := suite.createUser("owner@example.com", "owner")
	card := suite.createCard(suite.createBoard(owner), owner)
	task := suite.createTask(card, owner)

	title := "Write better docs"
	_, err := suite.tasks.UpdateTask(context.Background(), task, UpdateTaskInput{Title: &title})
	suite.Require().NoError(err)
	suite.Empty(suite.publisher.published())

	status := models.StatusReview
	task, err = suite.tasks.UpdateTask(context.Background(), task, UpdateTaskInput{Status: &status, SenderID: "conn-7"})
	suite.Require().NoError(err)
	suite.False(task.IsCompleted)

	events := suite.publisher.published()
	suite.Require().Len(events, 1)
	suite.Equal(constants.EventTaskMoved, events[0].Name)
	suite.Equal(card.BoardID, events[0].BoardID)
	suite.Equal("conn-7", events[0].SenderID)

	var payload TaskMovedPayload
	suite.Require().NoError(json.Unmarshal(events[0].Data, &payload))
	suite.Equal(TaskMovedPayload{TaskID: task.ID, CardID: card.ID, Status: models.StatusReview}, payload)

	// same status again is not a move
	_, err = suite.tasks.UpdateTask(context.Background(), task, UpdateTaskInput{Status: &status})
	suite.Require().NoError(err)
	suite.Len(suite.publisher.published(), 1)
}

func (suite *ServiceTestSuite) TestUpdateTaskDueDate() {
	owner := suite.createUser("owner@example.com", "owner")
	task := suite.createTask(suite.createCard(suite.createBoard(owner), owner), owner)

	due := suite.now.Add(48 * time.Hour)
	task, err := suite.tasks.UpdateTask(context.Background(), task, UpdateTaskInput{DueDate: &due})
	suite.Require().NoError(err)
	suite.Require().NotNil(task.DueDate)

	task, err = suite.tasks.UpdateTask(context.Background(), task, UpdateTaskInput{ClearDueDate: true})
	suite.Require().NoError(err)
	suite.Nil(task.DueDate)

	stored, err := suite.tasks.GetTask(task.ID)
	suite.Require().NoError(err)
	suite.Nil(stored.DueDate)
}

func (suite *ServiceTestSuite) TestCompleteAndReopenTask() {
	owner := suite.createUser("owner@example.com", "owner")
	worker := suite.createUser("worker@example.com", "worker")
	task := suite.createTask(suite.createCard(suite.createBoard(owner), owner), owner)

	task, err := suite.tasks.CompleteTask(context.Background(), task, worker.ID, "conn-1")
	suite.Require().NoError(err)
	suite.True(task.IsCompleted)
	suite.Equal(models.StatusDone, task.Status)
	suite.Require().NotNil(task.CompletedBy)
	suite.Equal(worker.ID, *task.CompletedBy)

	stored, err := suite.tasks.GetTask(task.ID)
	suite.Require().NoError(err)
	suite.True(stored.IsCompleted)
	suite.Require().NotNil(stored.CompletedAt)

	task, err = suite.tasks.ReopenTask(context.Background(), stored, "")
	suite.Require().NoError(err)
	suite.False(task.IsCompleted)
	suite.Equal(models.StatusOngoing, task.Status)
	suite.Nil(task.CompletedAt)
	suite.Nil(task.CompletedBy)

	events := suite.publisher.published()
	suite.Require().Len(events, 2)
	suite.Equal("conn-1", events[0].SenderID)
	suite.Empty(events[1].SenderID)
}

func (suite *ServiceTestSuite) TestAssignAndComment() {
	owner := suite.createUser("owner@example.com", "owner")
	worker := suite.createUser("worker@example.com", "worker")
	task := suite.createTask(suite.createCard(suite.createBoard(owner), owner), owner)

	task, err := suite.tasks.AssignUser(task, worker.ID)
	suite.Require().NoError(err)
	task, err = suite.tasks.AssignUser(task, worker.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{worker.ID}, task.AssigneeUserIDs())

	_, err = suite.tasks.AssignUser(task, 9999)
	suite.ErrorIs(err, ErrUserNotFound)

	comment, err := suite.tasks.AddComment(task, worker.ID, "<p>On it</p>")
	suite.Require().NoError(err)
	suite.NotZero(comment.ID)
	suite.Equal("On it", comment.Text)

	_, err = suite.tasks.AddComment(task, worker.ID, "   ")
	suite.ErrorIs(err, ErrInvalidComment)

	stored, err := suite.tasks.GetTask(task.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{worker.ID}, stored.AssigneeUserIDs())
	suite.Require().Len(stored.Comments, 1)
	suite.Equal("worker", stored.Comments[0].User.Name)

	stored, err = suite.tasks.UnassignUser(stored, worker.ID)
	suite.Require().NoError(err)
	suite.Empty(stored.AssigneeUserIDs())

	// replacing assignments leaves comments alone
	reloaded, err := suite.tasks.GetTask(task.ID)
	suite.Require().NoError(err)
	suite.Len(reloaded.Comments, 1)
	suite.Empty(reloaded.AssigneeUserIDs())
}

func (suite *ServiceTestSuite) TestDeleteTask() {
	owner := suite.createUser("owner@example.com", "owner")
	task := suite.createTask(suite.createCard(suite.createBoard(owner), owner), owner)
	_, err := suite.tasks.AddComment(task, owner.ID, "bye")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.tasks.DeleteTask(task))
	_, err = suite.tasks.GetTask(task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestGenerateTasksDraftsAndCreates() {
	owner := suite.createUser("owner@example.com", "owner")
	card := suite.createCard(suite.createBoard(owner), owner)

	past := suite.now.Add(-72 * time.Hour)
	future := suite.now.Add(72 * time.Hour)
	suite.generator.tasks = []GeneratedTask{
		{Title: "Book venue", Priority: models.PriorityHigh, DueDate: &future},
		{Title: "Send invites", Priority: models.Priority("asap"), DueDate: &past},
		{Title: "   ", Priority: models.PriorityLow},
	}

	drafts, created, err := suite.tasks.GenerateTasks(context.Background(), card, GenerateTasksInput{Text: "plan the party", OwnerID: owner.ID})
	suite.Require().NoError(err)
	suite.Nil(created)
	suite.Require().Len(drafts, 2)
	suite.Equal(models.PriorityHigh, drafts[0].Priority)
	suite.Equal(models.PriorityMedium, drafts[1].Priority)
	suite.Nil(drafts[1].DueDate)

	listed, err := suite.tasks.ListTasks(card)
	suite.Require().NoError(err)
	suite.Empty(listed)

	_, created, err = suite.tasks.GenerateTasks(context.Background(), card, GenerateTasksInput{Text: "plan the party", Create: true, OwnerID: owner.ID})
	suite.Require().NoError(err)
	suite.Require().Len(created, 2)
	for _, task := range created {
		suite.NotZero(task.ID)
		suite.Equal(models.StatusBacklog, task.Status)
		suite.Equal(owner.ID, task.OwnerID)
	}

	listed, err = suite.tasks.ListTasks(card)
	suite.Require().NoError(err)
	suite.Len(listed, 2)
}

func (suite *ServiceTestSuite) TestGenerateTasksErrors() {
	owner := suite.createUser("owner@example.com", "owner")
	card := suite.createCard(suite.createBoard(owner), owner)
	ctx := context.Background()

	_, _, err := suite.tasks.GenerateTasks(ctx, card, GenerateTasksInput{Text: " "})
	suite.ErrorIs(err, ErrGenerateTextRequired)

	_, _, err = suite.tasks.GenerateTasks(ctx, card, GenerateTasksInput{Text: "notes"})
	suite.ErrorIs(err, ErrAINoTasksGenerated)

	suite.generator.tasks = []GeneratedTask{{Title: ""}}
	_, _, err = suite.tasks.GenerateTasks(ctx, card, GenerateTasksInput{Text: "notes"})
	suite.ErrorIs(err, ErrAINoValidTasks)

	suite.generator.tasks = make([]GeneratedTask, constants.MaxAIGeneratedTasks+1)
	_, _, err = suite.tasks.GenerateTasks(ctx, card, GenerateTasksInput{Text: "notes"})
	suite.ErrorIs(err, ErrAITooManyTasks)

	suite.generator.err = errBoom
	_, _, err = suite.tasks.GenerateTasks(ctx, card, GenerateTasksInput{Text: "notes"})
	suite.ErrorIs(err, errBoom)

	noAI := NewTaskService(suite.taskRepo, suite.userRepo, nil, nil, suite.logger)
	_, _, err = noAI.GenerateTasks(ctx, card, GenerateTasksInput{Text: "notes"})
	suite.ErrorIs(err, ErrAIServiceNotConfigured)
}
