package services

import (
	"time"

	"github.com/yukikurage/mini-trello-api/internal/models"
)

func (suite *ServiceTestSuite) invite(board *models.Board, inviter *models.User, email string, role models.BoardRole) (*models.Invitation, error) {
	return suite.invitations.Invite(board, InviteInput{Inviter: inviter, Email: email, Role: role})
}

func (suite *ServiceTestSuite) TestInviteAndAccept() {
	owner := suite.createUser("owner@example.com", "owner")
	guest := suite.createUser("guest@example.com", "guest")
	board := suite.createBoard(owner)

	inv, err := suite.invitations.Invite(board, InviteInput{
		Inviter: owner,
		Email:   "Guest@Example.com",
		Role:    models.BoardRoleViewer,
		Message: "join us",
	})
	suite.Require().NoError(err)
	suite.Equal(models.InvitationPending, inv.Status)
	suite.Equal(guest.ID, inv.InviteeID)
	suite.True(inv.ExpiresAt.Equal(suite.now.Add(24 * time.Hour)))

	suite.Require().Len(suite.mailer.invitations, 1)
	suite.Equal(sentInvitation{address: "guest@example.com", board: "Roadmap", role: "viewer"}, suite.mailer.invitations[0])

	pending, err := suite.invitations.ListPendingForUser(guest.ID)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(board.ID, pending[0].Board.ID)

	accepted, joined, err := suite.invitations.Accept(guest.ID, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvitationAccepted, accepted.Status)
	suite.NotNil(accepted.RespondedAt)
	member, ok := joined.Member(guest.ID)
	suite.Require().True(ok)
	suite.Equal(models.BoardRoleViewer, member.Role)

	stored, err := suite.boards.GetBoard(board.ID)
	suite.Require().NoError(err)
	member, ok = stored.Member(guest.ID)
	suite.Require().True(ok)
	suite.Equal(models.BoardRoleViewer, member.Role)

	pending, err = suite.invitations.ListPendingForUser(guest.ID)
	suite.Require().NoError(err)
	suite.Empty(pending)

	_, _, err = suite.invitations.Accept(guest.ID, inv.ID)
	suite.ErrorIs(err, models.ErrInvitationResponded)
	_, err = suite.invitations.Decline(guest.ID, inv.ID)
	suite.ErrorIs(err, models.ErrInvitationResponded)
}

func (suite *ServiceTestSuite) TestInviteDefaultsToMemberRole() {
	owner := suite.createUser("owner@example.com", "owner")
	suite.createUser("guest@example.com", "guest")
	board := suite.createBoard(owner)

	inv, err := suite.invite(board, owner, "guest@example.com", "")
	suite.Require().NoError(err)
	suite.Equal(models.BoardRoleMember, inv.Role)
}

func (suite *ServiceTestSuite) TestInviteRejections() {
	owner := suite.createUser("owner@example.com", "owner")
	member := suite.createUser("member@example.com", "member")
	guest := suite.createUser("guest@example.com", "guest")
	board := suite.createBoard(owner)
	board.AddMember(member.ID, models.BoardRoleAdmin, suite.now)
	suite.Require().NoError(suite.boardRepo.Update(board))

	_, err := suite.invite(board, owner, "OWNER@example.com", models.BoardRoleMember)
	suite.ErrorIs(err, ErrCannotInviteSelf)

	_, err = suite.invite(board, owner, "nobody@example.com", models.BoardRoleMember)
	suite.ErrorIs(err, ErrInviteeNotFound)

	_, err = suite.invite(board, owner, "member@example.com", models.BoardRoleMember)
	suite.ErrorIs(err, ErrAlreadyBoardMember)

	// an admin inviting the owner
	_, err = suite.invite(board, member, "owner@example.com", models.BoardRoleMember)
	suite.ErrorIs(err, ErrAlreadyBoardMember)

	_, err = suite.invite(board, owner, "guest@example.com", models.BoardRole("root"))
	suite.ErrorIs(err, ErrInvalidRole)

	_, err = suite.invite(board, owner, "bad email", models.BoardRoleMember)
	suite.ErrorIs(err, ErrInvalidEmail)

	_, err = suite.invite(board, owner, "guest@example.com", models.BoardRoleMember)
	suite.Require().NoError(err)
	_, err = suite.invite(board, member, "guest@example.com", models.BoardRoleViewer)
	suite.ErrorIs(err, ErrInvitationExists)

	invitations, err := suite.invitations.ListForBoard(board)
	suite.Require().NoError(err)
	suite.Require().Len(invitations, 1)
	suite.Equal(guest.ID, invitations[0].InviteeID)
}

func (suite *ServiceTestSuite) TestInviteSucceedsWhenMailFails() {
	owner := suite.createUser("owner@example.com", "owner")
	suite.createUser("guest@example.com", "guest")
	board := suite.createBoard(owner)
	suite.mailer.err = errBoom

	inv, err := suite.invite(board, owner, "guest@example.com", models.BoardRoleMember)
	suite.Require().NoError(err)
	suite.NotZero(inv.ID)
	suite.NotNil(suite.logHook.LastEntry())
}

func (suite *ServiceTestSuite) TestOnlyInviteeCanRespond() {
	owner := suite.createUser("owner@example.com", "owner")
	guest := suite.createUser("guest@example.com", "guest")
	intruder := suite.createUser("intruder@example.com", "intruder")
	board := suite.createBoard(owner)

	inv, err := suite.invite(board, owner, "guest@example.com", models.BoardRoleMember)
	suite.Require().NoError(err)

	_, _, err = suite.invitations.Accept(intruder.ID, inv.ID)
	suite.ErrorIs(err, ErrNotInvitee)
	_, err = suite.invitations.Decline(owner.ID, inv.ID)
	suite.ErrorIs(err, ErrNotInvitee)
	_, _, err = suite.invitations.Accept(guest.ID, 9999)
	suite.ErrorIs(err, ErrInvitationNotFound)

	declined, err := suite.invitations.Decline(guest.ID, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvitationDeclined, declined.Status)

	stored, err := suite.boards.GetBoard(board.ID)
	suite.Require().NoError(err)
	suite.Empty(stored.MemberUserIDs())

	// a declined invitation no longer blocks a new one
	_, err = suite.invite(board, owner, "guest@example.com", models.BoardRoleMember)
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestExpiredInvitation() {
	owner := suite.createUser("owner@example.com", "owner")
	guest := suite.createUser("guest@example.com", "guest")
	board := suite.createBoard(owner)

	inv, err := suite.invite(board, owner, "guest@example.com", models.BoardRoleMember)
	suite.Require().NoError(err)

	suite.now = suite.now.Add(25 * time.Hour)

	pending, err := suite.invitations.ListPendingForUser(guest.ID)
	suite.Require().NoError(err)
	suite.Empty(pending)

	_, _, err = suite.invitations.Accept(guest.ID, inv.ID)
	suite.ErrorIs(err, models.ErrInvitationExpired)

	declined, err := suite.invitations.Decline(guest.ID, inv.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvitationDeclined, declined.Status)
}
