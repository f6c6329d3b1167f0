package services

func (suite *ServiceTestSuite) TestSearchUsers() {
	suite.createUser("alice@example.com", "Alice Liddell")
	suite.createUser("bob@example.com", "Bob")
	inactive := suite.createUser("alina@example.com", "Alina")
	inactive.IsActive = false
	suite.Require().NoError(suite.userRepo.Update(inactive))

	users, err := suite.users.Search("ali")
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal("Alice Liddell", users[0].Name)

	users, err = suite.users.Search("EXAMPLE.com")
	suite.Require().NoError(err)
	suite.Len(users, 2)

	_, err = suite.users.Search(" a ")
	suite.ErrorIs(err, ErrSearchQueryTooShort)

	users, err = suite.users.List()
	suite.Require().NoError(err)
	suite.Len(users, 2)
}

func (suite *ServiceTestSuite) TestUpdateProfile() {
	alice := suite.createUser("alice@example.com", "alice")
	bob := suite.createUser("bob@example.com", "bob")

	name := "  Alice <em>L</em> "
	avatar := " https://cdn.example.com/a.png "
	updated, err := suite.users.UpdateProfile(alice.ID, alice.ID, UpdateProfileInput{Name: &name, Avatar: &avatar})
	suite.Require().NoError(err)
	suite.Equal("Alice L", updated.Name)
	suite.Equal("https://cdn.example.com/a.png", updated.Avatar)

	_, err = suite.users.UpdateProfile(bob.ID, alice.ID, UpdateProfileInput{Name: &name})
	suite.ErrorIs(err, ErrNotProfileOwner)

	short := "x"
	_, err = suite.users.UpdateProfile(alice.ID, alice.ID, UpdateProfileInput{Name: &short})
	suite.ErrorIs(err, ErrInvalidUserName)

	_, err = suite.users.UpdateProfile(alice.ID, 9999, UpdateProfileInput{Name: &name})
	suite.ErrorIs(err, ErrUserNotFound)
}
