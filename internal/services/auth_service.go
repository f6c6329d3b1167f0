package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/models"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("account is deactivated")
	ErrAlreadyVerified     = errors.New("user already verified")
	ErrInvalidCode         = errors.New("invalid or expired verification code")
	ErrFailedToSendCode    = errors.New("failed to send verification code")
	ErrFailedToCreateUser  = errors.New("failed to create user")
	ErrInvalidToken        = errors.New("invalid token")
	ErrFailedToIssueToken  = errors.New("failed to issue token")
	ErrCodeGenerationError = errors.New("failed to generate verification code")
)

// CodeMailer delivers verification codes.
type CodeMailer interface {
	SendVerificationCode(address, code string, minutes int) error
}

// AuthConfig holds the tunables of AuthService.
type AuthConfig struct {
	CodeTTL    time.Duration
	BcryptCost int
	JWTSecret  string
	JWTTTL     time.Duration
}

// AuthService handles sign up and sign in with emailed verification codes.
type AuthService struct {
	userRepo repository.UserRepository
	mailer   CodeMailer
	log      logrus.FieldLogger
	cfg      AuthConfig

	now          func() time.Time
	generateCode func() (string, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, mailer CodeMailer, log logrus.FieldLogger, cfg AuthConfig) *AuthService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = constants.DefaultCodeTTL
	}
	return &AuthService{
		userRepo: userRepo,
		mailer:   mailer,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		generateCode: func() (string, error) {
			return utils.GenerateVerificationCode(constants.VerificationCodeLength)
		},
	}
}

func normalizeEmail(email string) (string, error) {
	email = utils.NormalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Signup creates an unverified user and emails a verification code.
func (s *AuthService) Signup(email string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	name := utils.EmailLocalPart(email)
	if len([]rune(name)) > constants.MaxUserNameLength {
		name = string([]rune(name)[:constants.MaxUserNameLength])
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		IsActive: true,
	}
	code, err := s.issueCode(user)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}

	if err := s.sendCode(user, code); err != nil {
		// the user can ask for a new code
		s.log.WithError(err).WithField("user", user.ID).Warn("verification email not sent")
	}
	return user, nil
}

// Signin checks the code and returns the user with a bearer token.
func (s *AuthService) Signin(email, code string) (*models.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", ErrInvalidCode
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCode
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, "", ErrUserInactive
	}

	now := s.now()
	hadCode := user.HasPendingCode()
	if !user.VerifyCode(code, now) {
		if hadCode && !user.HasPendingCode() {
			if err := s.userRepo.Update(user); err != nil {
				return nil, "", fmt.Errorf("failed to clear expired code: %w", err)
			}
		}
		return nil, "", ErrInvalidCode
	}

	user.MarkLogin(now)
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", fmt.Errorf("failed to update user: %w", err)
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResendVerification issues a new code for an unverified user.
func (s *AuthService) ResendVerification(email string) error {
	user, err := s.findUnverified(email)
	if err != nil {
		return err
	}
	return s.deliverNewCode(user)
}

// RequestSigninCode mails a sign-in code to any active user. Codes are
// single use, so verified users need this once their session expires.
func (s *AuthService) RequestSigninCode(email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return ErrUserInactive
	}
	return s.deliverNewCode(user)
}

// deliverNewCode replaces the pending code and mails it.
func (s *AuthService) deliverNewCode(user *models.User) error {
	code, err := s.issueCode(user)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}
	if err := s.sendCode(user, code); err != nil {
		s.log.WithError(err).WithField("user", user.ID).Error("verification email not sent")
		return ErrFailedToSendCode
	}
	return nil
}

// VerifyEmail marks an unverified user as verified without signing in.
func (s *AuthService) VerifyEmail(email, code string) (*models.User, error) {
	user, err := s.findUnverified(email)
	if err != nil {
		return nil, err
	}

	hadCode := user.HasPendingCode()
	ok := user.VerifyCode(code, s.now())
	if ok || (hadCode && !user.HasPendingCode()) {
		if err := s.userRepo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	if !ok {
		return nil, ErrInvalidCode
	}
	return user, nil
}

func (s *AuthService) findUnverified(email string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	return user, nil
}

func (s *AuthService) issueCode(user *models.User) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", ErrCodeGenerationError
	}
	if err := user.SetVerificationCode(code, s.cfg.CodeTTL, s.now(), s.cfg.BcryptCost); err != nil {
		return "", fmt.Errorf("failed to hash verification code: %w", err)
	}
	return code, nil
}

func (s *AuthService) sendCode(user *models.User, code string) error {
	if s.mailer == nil {
		return errors.New("no mailer configured")
	}
	return s.mailer.SendVerificationCode(user.Email, code, int(s.cfg.CodeTTL.Minutes()))
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// IssueToken signs an HS256 token whose subject is the user ID.
func (s *AuthService) IssueToken(userID uint64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToIssueToken, err)
	}
	return signed, nil
}

// ValidateToken returns the user ID carried by a token.
func (s *AuthService) ValidateToken(tokenString string) (uint64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
