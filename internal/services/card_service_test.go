package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateCardUsesBoardDefaults() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)

	card := suite.createCard(board, owner)
	suite.Equal(models.StatusBacklog, card.Status)
	suite.Equal(models.PriorityMedium, card.Priority)
	suite.Equal(board.ID, card.BoardID)

	status := models.StatusIcebox
	board.Settings.DefaultCardStatus = status
	card, err := suite.cards.CreateCard(board, CreateCardInput{Name: "Later", OwnerID: owner.ID})
	suite.Require().NoError(err)
	suite.Equal(models.StatusIcebox, card.Status)

	priority := models.Priority("whenever")
	_, err = suite.cards.CreateCard(board, CreateCardInput{Name: "Bad", Priority: &priority, OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidPriority)

	_, err = suite.cards.CreateCard(board, CreateCardInput{Name: "", OwnerID: owner.ID})
	suite.ErrorIs(err, ErrInvalidCardName)
}

func (suite *ServiceTestSuite) TestUpdateCardPublishesWithSender() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)
	card := suite.createCard(board, owner)

	name := "Launch v2"
	status := models.StatusOngoing
	updated, err := suite.cards.UpdateCard(context.Background(), card, UpdateCardInput{
		Name:     &name,
		Status:   &status,
		SenderID: "conn-1",
	})
	suite.Require().NoError(err)
	suite.Equal("Launch v2", updated.Name)

	events := suite.publisher.published()
	suite.Require().Len(events, 1)
	suite.Equal(constants.EventCardUpdated, events[0].Name)
	suite.Equal(board.ID, events[0].BoardID)
	suite.Equal("conn-1", events[0].SenderID)

	var payload struct {
		CardID uint64 `json:"cardId"`
		Card   struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"card"`
	}
	suite.Require().NoError(json.Unmarshal(events[0].Data, &payload))
	suite.Equal(card.ID, payload.CardID)
	suite.Equal("Launch v2", payload.Card.Name)
	suite.Equal("ongoing", payload.Card.Status)

	stored, err := suite.cards.GetCard(card.ID)
	suite.Require().NoError(err)
	suite.Equal(models.StatusOngoing, stored.Status)
}

func (suite *ServiceTestSuite) TestUpdateCardRejectsInvalidInputWithoutPublishing() {
	owner := suite.createUser("owner@example.com", "owner")
	card := suite.createCard(suite.createBoard(owner), owner)

	status := models.WorkflowStatus("blocked")
	_, err := suite.cards.UpdateCard(context.Background(), card, UpdateCardInput{Status: &status})
	suite.ErrorIs(err, ErrInvalidStatus)
	suite.Empty(suite.publisher.published())
}

func (suite *ServiceTestSuite) TestPublishFailureDoesNotFailWrite() {
	owner := suite.createUser("owner@example.com", "owner")
	card := suite.createCard(suite.createBoard(owner), owner)
	suite.publisher.err = errBoom

	archived, err := suite.cards.ToggleArchive(context.Background(), card, "")
	suite.Require().NoError(err)
	suite.True(archived.IsArchived)

	entry := suite.logHook.LastEntry()
	suite.Require().NotNil(entry)
	suite.Equal(logrus.WarnLevel, entry.Level)
	suite.Equal(constants.EventCardUpdated, entry.Data["event"])
}

func (suite *ServiceTestSuite) TestCardMembersAndLabels() {
	owner := suite.createUser("owner@example.com", "owner")
	helper := suite.createUser("helper@example.com", "helper")
	card := suite.createCard(suite.createBoard(owner), owner)

	card, err := suite.cards.AddMember(card, helper.ID)
	suite.Require().NoError(err)
	card, err = suite.cards.AddMember(card, helper.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{helper.ID}, card.MemberUserIDs())

	_, err = suite.cards.AddMember(card, 9999)
	suite.ErrorIs(err, ErrUserNotFound)

	card, err = suite.cards.AddLabel(card, "Bug", "")
	suite.Require().NoError(err)
	card, err = suite.cards.AddLabel(card, "bug", "#ff0000")
	suite.Require().NoError(err)
	suite.Require().Len(card.Labels, 1)
	suite.Equal(constants.DefaultLabelColor, card.Labels[0].Color)

	_, err = suite.cards.AddLabel(card, "Feature", "red")
	suite.ErrorIs(err, ErrInvalidLabelColor)
	_, err = suite.cards.AddLabel(card, "this label is far too long", "#fff")
	suite.ErrorIs(err, ErrInvalidLabelName)

	stored, err := suite.cards.GetCard(card.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{helper.ID}, stored.MemberUserIDs())
	suite.Len(stored.Labels, 1)

	stored, err = suite.cards.RemoveLabel(stored, "BUG")
	suite.Require().NoError(err)
	stored, err = suite.cards.RemoveMember(stored, helper.ID)
	suite.Require().NoError(err)

	reloaded, err := suite.cards.GetCard(card.ID)
	suite.Require().NoError(err)
	suite.Empty(reloaded.Labels)
	suite.Empty(reloaded.MemberUserIDs())
}

func (suite *ServiceTestSuite) TestListCardsSkipsArchived() {
	owner := suite.createUser("owner@example.com", "owner")
	board := suite.createBoard(owner)
	kept := suite.createCard(board, owner)
	hidden := suite.createCard(board, owner)
	_, err := suite.cards.ToggleArchive(context.Background(), hidden, "")
	suite.Require().NoError(err)

	cards, err := suite.cards.ListCards(board)
	suite.Require().NoError(err)
	suite.Require().Len(cards, 1)
	suite.Equal(kept.ID, cards[0].ID)
}
