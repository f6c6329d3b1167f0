package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
)

// publishedNamed returns the published events called name.
func (suite *ServiceTestSuite) publishedNamed(name string) []realtime.Event {
	var events []realtime.Event
	for _, ev := range suite.publisher.published() {
		if ev.Name == name {
			events = append(events, ev)
		}
	}
	return events
}

func (suite *ServiceTestSuite) removedUserIDs() []uint64 {
	var ids []uint64
	for _, ev := range suite.publishedNamed(constants.EventMemberRemoved) {
		var payload realtime.MemberRemovedPayload
		suite.Require().NoError(json.Unmarshal(ev.Data, &payload))
		ids = append(ids, payload.UserID)
	}
	return ids
}

func (suite *ServiceTestSuite) TestCreateBoardValidatesAndSanitizes() {
	owner := suite.createUser("owner@example.com", "owner")

	board, err := suite.boards.CreateBoard(CreateBoardInput{
		Name:        "<b>Sprint</b> 12",
		Description: "<script>alert(1)</script>plan",
		OwnerID:     owner.ID,
	})
	suite.Require().NoError(err)
	suite.Equal("Sprint 12", board.Name)
	suite.Equal("plan", board.Description)
	suite.Equal(models.DefaultBoardSettings(), board.Settings)
	suite.Empty(board.Members)

	_, err = suite.boards.CreateBoard(CreateBoardInput{Name: "  ", OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidBoardName)

	_, err = suite.boards.CreateBoard(CreateBoardInput{Name: strings.Repeat("x", 101), OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidBoardName)

	_, err = suite.boards.CreateBoard(CreateBoardInput{Name: "ok", Description: strings.Repeat("x", 501), OwnerID: owner.ID})
	suite.ErrorIs(err, ErrBoardDescTooLong)
}

func (suite *ServiceTestSuite) TestListBoardsForUserIncludesMembershipAndSkipsArchived() {
	owner := suite.createUser("owner@example.com", "owner")
	member := suite.createUser("member@example.com", "member")
	stranger := suite.createUser("stranger@example.com", "stranger")

	shared := suite.createBoard(owner)
	shared.AddMember(member.ID, models.BoardRoleMember, suite.now)
	suite.Require().NoError(suite.boardRepo.Update(shared))

	archived := suite.createBoard(owner)
	_, err := suite.boards.ToggleArchive(archived)
	suite.Require().NoError(err)

	boards, err := suite.boards.ListBoardsForUser(owner.ID)
	suite.Require().NoError(err)
	suite.Require().Len(boards, 1)
	suite.Equal(shared.ID, boards[0].ID)

	boards, err = suite.boards.ListBoardsForUser(member.ID)
	suite.Require().NoError(err)
	suite.Len(boards, 1)

	boards, err = suite.boards.ListBoardsForUser(stranger.ID)
	suite.Require().NoError(err)
	suite.Empty(boards)
}

func (suite *ServiceTestSuite) TestUpdateBoardMergesSettings() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)

	name := "Renamed"
	allowEdit := false
	status := models.StatusIcebox
	updated, err := suite.boards.UpdateBoard(board, UpdateBoardInput{
		Name: &name,
		Settings: &BoardSettingsInput{
			AllowMemberEdit:   &allowEdit,
			DefaultCardStatus: &status,
		},
	})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Name)
	suite.True(updated.Settings.AllowMemberInvite)
	suite.False(updated.Settings.AllowMemberEdit)
	suite.Equal(models.StatusIcebox, updated.Settings.DefaultCardStatus)

	stored, err := suite.boards.GetBoard(board.ID)
	suite.Require().NoError(err)
	suite.False(stored.Settings.AllowMemberEdit)

	bad := models.WorkflowStatus("later")
	_, err = suite.boards.UpdateBoard(stored, UpdateBoardInput{
		Name:     &name,
		Settings: &BoardSettingsInput{DefaultCardStatus: &bad},
	})
	suite.ErrorIs(err, ErrInvalidStatus)
	suite.Equal(models.StatusIcebox, stored.Settings.DefaultCardStatus)
}

func (suite *ServiceTestSuite) TestDeleteBoardRemovesEverything() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)
	card := suite.createCard(board, owner)
	task := suite.createTask(card, owner)

	suite.Require().NoError(suite.boards.DeleteBoard(context.Background(), board))
	deleted := suite.publishedNamed(constants.EventBoardDeleted)
	suite.Require().Len(deleted, 1)
	suite.Equal(board.ID, deleted[0].BoardID)
	suite.Empty(deleted[0].SenderID)

	_, err := suite.boards.GetBoard(board.ID)
	suite.ErrorIs(err, ErrBoardNotFound)
	_, err = suite.cards.GetCard(card.ID)
	suite.ErrorIs(err, ErrCardNotFound)
	_, err = suite.tasks.GetTask(task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestChangeMemberRole() {
	owner := suite.createUser("owner@example.com", "owner")
	admin := suite.createUser("admin@example.com", "admin")
	other := suite.createUser("other@example.com", "other")
	viewer := suite.createUser("viewer@example.com", "viewer")

	board := suite.createBoard(owner)
	board.AddMember(admin.ID, models.BoardRoleAdmin, suite.now)
	board.AddMember(other.ID, models.BoardRoleAdmin, suite.now)
	board.AddMember(viewer.ID, models.BoardRoleViewer, suite.now)
	suite.Require().NoError(suite.boardRepo.Update(board))

	board, err := suite.boards.ChangeMemberRole(admin.ID, board, viewer.ID, models.BoardRoleMember)
	suite.Require().NoError(err)
	member, ok := board.Member(viewer.ID)
	suite.Require().True(ok)
	suite.Equal(models.BoardRoleMember, member.Role)

	_, err = suite.boards.ChangeMemberRole(admin.ID, board, other.ID, models.BoardRoleViewer)
	suite.ErrorIs(err, ErrAdminCannotDemote)

	_, err = suite.boards.ChangeMemberRole(owner.ID, board, other.ID, models.BoardRoleViewer)
	suite.NoError(err)

	_, err = suite.boards.ChangeMemberRole(admin.ID, board, owner.ID, models.BoardRoleViewer)
	suite.ErrorIs(err, ErrCannotChangeOwner)

	_, err = suite.boards.ChangeMemberRole(owner.ID, board, 9999, models.BoardRoleViewer)
	suite.ErrorIs(err, ErrBoardMemberNotFound)

	_, err = suite.boards.ChangeMemberRole(owner.ID, board, viewer.ID, models.BoardRole("guest"))
	suite.ErrorIs(err, ErrInvalidRole)

	stored, err := suite.boards.GetBoard(board.ID)
	suite.Require().NoError(err)
	member, _ = stored.Member(other.ID)
	suite.Equal(models.BoardRoleViewer, member.Role)
}

func (suite *ServiceTestSuite) TestRemoveMember() {
	owner := suite.createUser("owner@example.com", "owner")
	admin := suite.createUser("admin@example.com", "admin")
	member := suite.createUser("member@example.com", "member")

	board := suite.createBoard(owner)
	board.AddMember(admin.ID, models.BoardRoleAdmin, suite.now)
	board.AddMember(member.ID, models.BoardRoleMember, suite.now)
	suite.Require().NoError(suite.boardRepo.Update(board))

	_, err := suite.boards.RemoveMember(context.Background(), admin.ID, board, owner.ID)
	suite.ErrorIs(err, ErrCannotChangeOwner)
	suite.Empty(suite.removedUserIDs())

	board, err = suite.boards.RemoveMember(context.Background(), admin.ID, board, member.ID)
	suite.Require().NoError(err)
	suite.ElementsMatch([]uint64{admin.ID}, board.MemberUserIDs())
	suite.Equal([]uint64{member.ID}, suite.removedUserIDs())

	// removing someone who is not a member is not an error and announces nothing
	_, err = suite.boards.RemoveMember(context.Background(), admin.ID, board, member.ID)
	suite.NoError(err)
	suite.Equal([]uint64{member.ID}, suite.removedUserIDs())

	// admins may leave
	board, err = suite.boards.RemoveMember(context.Background(), admin.ID, board, admin.ID)
	suite.Require().NoError(err)
	suite.Empty(board.MemberUserIDs())
	suite.Equal([]uint64{member.ID, admin.ID}, suite.removedUserIDs())
	for _, ev := range suite.publishedNamed(constants.EventMemberRemoved) {
		suite.Equal(board.ID, ev.BoardID)
	}
}

func (suite *ServiceTestSuite) TestRemoveMemberStorageFailurePublishesNothing() {
	owner := suite.createUser("owner@example.com", "owner")
	member := suite.createUser("member@example.com", "member")
	board := suite.createBoard(owner)
	board.AddMember(member.ID, models.BoardRoleMember, suite.now)
	suite.Require().NoError(suite.boardRepo.Update(board))

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(sqlDB.Close())

	_, err = suite.boards.RemoveMember(context.Background(), owner.ID, board, member.ID)
	suite.Error(err)
	suite.Empty(suite.removedUserIDs())
}
