package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inkpress/inkpress/models"
)

// RefreshTokenTTL is the lifetime of a stored refresh token.
const RefreshTokenTTL = 30 * 24 * time.Hour

// ErrInvalidRefreshToken marks a presented refresh token that is unknown,
// already rotated, or expired. Controllers map it to 401; anything else from
// this file is a persistence failure and maps to 500.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// IssueRefreshToken generates a 256-bit random token, persists it with a
// 30-day expiry and returns the plaintext. This is the only time the
// plaintext is available to the caller.
func IssueRefreshToken(db *gorm.DB, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	record := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}
	if err := db.Create(&record).Error; err != nil {
		return "", err
	}
	return token, nil
}

// RedeemRefreshToken rotates a refresh token: the presented token is
// consumed, a fresh access/refresh pair is issued for its owner. The lookup,
// the insert of the replacement and the delete of the consumed row run in a
// single transaction, so a replayed old token fails after the first
// legitimate use.
func RedeemRefreshToken(db *gorm.DB, presented string) (user models.User, accessToken, refreshToken string, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		var record models.RefreshToken
		if err := tx.Where("token = ?", presented).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if time.Now().After(record.ExpiresAt) {
			return ErrInvalidRefreshToken
		}

		if err := tx.First(&user, "id = ?", record.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		refreshToken, err = IssueRefreshToken(tx, record.UserID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&record).Error; err != nil {
			return err
		}

		accessToken, err = GenerateAccessToken(record.UserID)
		return err
	})
	if err != nil {
		return models.User{}, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

// RevokeRefreshTokens deletes every refresh token owned by the user.
// Idempotent: revoking an empty set is not an error.
func RevokeRefreshTokens(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}
