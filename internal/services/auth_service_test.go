package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

func (suite *ServiceTestSuite) TestSignupCreatesUnverifiedUserAndSendsCode() {
	user, err := suite.auth.Signup("  Alice.Smith@Example.COM ")
	suite.Require().NoError(err)

	suite.Equal("alice.smith@example.com", user.Email)
	suite.Equal("alice.smith", user.Name)
	suite.False(user.IsVerified)
	suite.True(user.IsActive)
	suite.True(user.HasPendingCode())
	suite.NotEqual("123456", user.VerificationCodeHash)

	suite.Require().Len(suite.mailer.codes, 1)
	suite.Equal(sentCode{address: "alice.smith@example.com", code: "123456"}, suite.mailer.codes[0])
}

func (suite *ServiceTestSuite) TestSignupRejectsDuplicateAndInvalidEmail() {
	_, err := suite.auth.Signup("bob@example.com")
	suite.Require().NoError(err)

	_, err = suite.auth.Signup("BOB@example.com")
	suite.ErrorIs(err, ErrEmailTaken)

	_, err = suite.auth.Signup("not-an-email")
	suite.ErrorIs(err, ErrInvalidEmail)
}

func (suite *ServiceTestSuite) TestSignupSucceedsWhenMailFails() {
	suite.mailer.err = errBoom

	user, err := suite.auth.Signup("carol@example.com")
	suite.Require().NoError(err)
	suite.NotZero(user.ID)

	entry := suite.logHook.LastEntry()
	suite.Require().NotNil(entry)
	suite.Equal(logrus.WarnLevel, entry.Level)
}

func (suite *ServiceTestSuite) TestSigninWithValidCode() {
	_, err := suite.auth.Signup("dave@example.com")
	suite.Require().NoError(err)

	user, token, err := suite.auth.Signin("dave@example.com", "123456")
	suite.Require().NoError(err)
	suite.True(user.IsVerified)
	suite.False(user.HasPendingCode())
	suite.Require().NotNil(user.LastLogin)
	suite.True(user.LastLogin.Equal(suite.now))

	userID, err := suite.auth.ValidateToken(token)
	suite.Require().NoError(err)
	suite.Equal(user.ID, userID)

	// the code is single use
	_, _, err = suite.auth.Signin("dave@example.com", "123456")
	suite.ErrorIs(err, ErrInvalidCode)
}

func (suite *ServiceTestSuite) TestSigninWrongCodeKeepsPendingCode() {
	_, err := suite.auth.Signup("erin@example.com")
	suite.Require().NoError(err)

	_, _, err = suite.auth.Signin("erin@example.com", "000000")
	suite.ErrorIs(err, ErrInvalidCode)

	_, _, err = suite.auth.Signin("erin@example.com", "123456")
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestSigninExpiredCodeIsCleared() {
	_, err := suite.auth.Signup("frank@example.com")
	suite.Require().NoError(err)

	suite.now = suite.now.Add(11 * time.Minute)
	_, _, err = suite.auth.Signin("frank@example.com", "123456")
	suite.ErrorIs(err, ErrInvalidCode)

	stored, err := suite.userRepo.FindByEmail("frank@example.com")
	suite.Require().NoError(err)
	suite.False(stored.HasPendingCode())
}

func (suite *ServiceTestSuite) TestSigninUnknownAndInactiveUsers() {
	_, _, err := suite.auth.Signin("ghost@example.com", "123456")
	suite.ErrorIs(err, ErrInvalidCode)

	user, err := suite.auth.Signup("gina@example.com")
	suite.Require().NoError(err)
	user.IsActive = false
	suite.Require().NoError(suite.userRepo.Update(user))

	_, _, err = suite.auth.Signin("gina@example.com", "123456")
	suite.ErrorIs(err, ErrUserInactive)
}

func (suite *ServiceTestSuite) TestResendVerification() {
	_, err := suite.auth.Signup("hank@example.com")
	suite.Require().NoError(err)

	suite.auth.generateCode = func() (string, error) { return "654321", nil }
	suite.Require().NoError(suite.auth.ResendVerification("hank@example.com"))
	suite.Require().Len(suite.mailer.codes, 2)
	suite.Equal("654321", suite.mailer.codes[1].code)

	_, _, err = suite.auth.Signin("hank@example.com", "123456")
	suite.ErrorIs(err, ErrInvalidCode)
	_, _, err = suite.auth.Signin("hank@example.com", "654321")
	suite.Require().NoError(err)

	suite.ErrorIs(suite.auth.ResendVerification("hank@example.com"), ErrAlreadyVerified)
	suite.ErrorIs(suite.auth.ResendVerification("nobody@example.com"), ErrUserNotFound)
}

func (suite *ServiceTestSuite) TestRequestSigninCodeForVerifiedUser() {
	_, err := suite.auth.Signup("jay@example.com")
	suite.Require().NoError(err)
	_, _, err = suite.auth.Signin("jay@example.com", "123456")
	suite.Require().NoError(err)

	// the signup code is spent
	_, _, err = suite.auth.Signin("jay@example.com", "123456")
	suite.ErrorIs(err, ErrInvalidCode)

	suite.auth.generateCode = func() (string, error) { return "777777", nil }
	suite.Require().NoError(suite.auth.RequestSigninCode(" JAY@example.com "))
	suite.Require().Len(suite.mailer.codes, 2)
	suite.Equal("jay@example.com", suite.mailer.codes[1].address)
	suite.Equal("777777", suite.mailer.codes[1].code)

	user, token, err := suite.auth.Signin("jay@example.com", "777777")
	suite.Require().NoError(err)
	suite.True(user.IsVerified)
	suite.NotEmpty(token)
}

func (suite *ServiceTestSuite) TestRequestSigninCodeRejections() {
	suite.ErrorIs(suite.auth.RequestSigninCode("nobody@example.com"), ErrUserNotFound)
	suite.ErrorIs(suite.auth.RequestSigninCode("not-an-email"), ErrInvalidEmail)

	inactive := suite.createUser("kim@example.com", "kim")
	inactive.IsActive = false
	suite.Require().NoError(suite.userRepo.Update(inactive))
	suite.ErrorIs(suite.auth.RequestSigninCode("kim@example.com"), ErrUserInactive)
	suite.Empty(suite.mailer.codes)

	suite.createUser("lee@example.com", "lee")
	suite.mailer.err = errBoom
	suite.ErrorIs(suite.auth.RequestSigninCode("lee@example.com"), ErrFailedToSendCode)
}

func (suite *ServiceTestSuite) TestResendVerificationReportsMailFailure() {
	_, err := suite.auth.Signup("ivy@example.com")
	suite.Require().NoError(err)

	suite.mailer.err = errBoom
	suite.ErrorIs(suite.auth.ResendVerification("ivy@example.com"), ErrFailedToSendCode)
}

func (suite *ServiceTestSuite) TestVerifyEmail() {
	_, err := suite.auth.Signup("jack@example.com")
	suite.Require().NoError(err)

	_, err = suite.auth.VerifyEmail("jack@example.com", "999999")
	suite.ErrorIs(err, ErrInvalidCode)

	user, err := suite.auth.VerifyEmail("jack@example.com", "123456")
	suite.Require().NoError(err)
	suite.True(user.IsVerified)

	stored, err := suite.userRepo.FindByID(user.ID)
	suite.Require().NoError(err)
	suite.True(stored.IsVerified)
	suite.Nil(stored.LastLogin)

	_, err = suite.auth.VerifyEmail("jack@example.com", "123456")
	suite.ErrorIs(err, ErrAlreadyVerified)
}

func (suite *ServiceTestSuite) TestValidateTokenRejectsExpiredAndForeignTokens() {
	token, err := suite.auth.IssueToken(42)
	suite.Require().NoError(err)

	id, err := suite.auth.ValidateToken(token)
	suite.Require().NoError(err)
	suite.Equal(uint64(42), id)

	other := NewAuthService(suite.userRepo, nil, suite.logger, AuthConfig{JWTSecret: "other", JWTTTL: time.Hour})
	other.now = suite.auth.now
	_, err = other.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)

	suite.now = suite.now.Add(2 * time.Hour)
	_, err = suite.auth.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)

	_, err = suite.auth.ValidateToken("garbage")
	suite.ErrorIs(err, ErrInvalidToken)
}
