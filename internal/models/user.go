package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID                      uint64         `gorm:"primarykey" json:"id"`
	Email                   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name                    string         `gorm:"type:varchar(50);not null" json:"name"`
	Avatar                  string         `gorm:"type:varchar(512)" json:"avatar"`
	IsVerified              bool           `gorm:"not null" json:"is_verified"`
	IsActive                bool           `gorm:"not null" json:"is_active"`
	VerificationCodeHash    string         `gorm:"type:varchar(255)" json:"-"`
	VerificationCodeExpires *time.Time     `json:"-"`
	LastLogin               *time.Time     `json:"last_login"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetVerificationCode stores a bcrypt hash of code that expires after ttl.
func (u *User) SetVerificationCode(code string, ttl time.Duration, now time.Time, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return err
	}
	expires := now.Add(ttl)
	u.VerificationCodeHash = string(hash)
	u.VerificationCodeExpires = &expires
	return nil
}

// HasPendingCode reports whether a verification code is outstanding.
func (u *User) HasPendingCode() bool {
	return u.VerificationCodeHash != "" && u.VerificationCodeExpires != nil
}

func (u *User) clearVerificationCode() {
	u.VerificationCodeHash = ""
	u.VerificationCodeExpires = nil
}

// VerifyCode checks code against the pending verification code.
//
// An expired code is cleared and rejected. A matching code marks the user
// verified and is cleared. A mismatch keeps the code so the user can retry.
// The caller must persist the user afterwards.
func (u *User) VerifyCode(code string, now time.Time) bool {
	if !u.HasPendingCode() {
		return false
	}
	if now.After(*u.VerificationCodeExpires) {
		u.clearVerificationCode()
		return false
	}
	if bcrypt.CompareHashAndPassword([]byte(u.VerificationCodeHash), []byte(code)) != nil {
		return false
	}
	u.IsVerified = true
	u.clearVerificationCode()
	return true
}

// MarkLogin records a successful sign-in.
func (u *User) MarkLogin(now time.Time) {
	u.LastLogin = &now
}
