package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// UserController handles registration, login and the session-token lifecycle.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// issueTokenPair mints a fresh access/refresh pair for the user.
func (u *UserController) issueTokenPair(user models.User) (gin.H, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := utils.IssueRefreshToken(u.db, user.ID)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}, nil
}

// Register creates a new account and signs it in.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
		Name      string `json:"name" binding:"required,min=1"`
		AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "name cannot be empty")
		return
	}

	// Friendly pre-check; the unique index on email remains the authoritative guard.
	var existing models.User
	if err := u.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         name,
		AvatarURL:    req.AvatarURL,
	}
	if err := u.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already exists")
			return
		}
		utils.Sugar.Errorf("failed to create user: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	payload, err := u.issueTokenPair(user)
	if err != nil {
		utils.Sugar.Errorf("failed to issue tokens: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate tokens")
		return
	}
	utils.Created(ctx, payload)
}

// Login verifies credentials and issues a fresh token pair.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := u.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Keep the failure path the same shape and cost as a wrong password.
		utils.BurnPasswordCheck(req.Password)
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid email or password")
		return
	}

	payload, err := u.issueTokenPair(user)
	if err != nil {
		utils.Sugar.Errorf("failed to issue tokens: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate tokens")
		return
	}
	utils.Success(ctx, payload)
}

// RefreshToken rotates a presented refresh token into a new token pair.
func (u *UserController) RefreshToken(ctx *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	user, accessToken, refreshToken, err := utils.RedeemRefreshToken(u.db, req.RefreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidRefreshToken) {
			utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid or expired refresh token")
			return
		}
		utils.Sugar.Errorf("failed to rotate refresh token: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to refresh token")
		return
	}

	utils.Success(ctx, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout revokes every refresh token owned by the caller.
func (u *UserController) Logout(ctx *gin.Context) {
	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	if err := utils.RevokeRefreshTokens(u.db, callerID); err != nil {
		utils.Sugar.Errorf("failed to revoke refresh tokens: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to log out")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// GetUser returns a user by ID.
func (u *UserController) GetUser(ctx *gin.Context) {
	var user models.User
	if err := u.db.First(&user, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateUser applies a partial profile update; only supplied fields change,
// and a supplied password is re-hashed wholesale.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	var req struct {
		Email     *string `json:"email" binding:"omitempty,email"`
		Password  *string `json:"password" binding:"omitempty,min=8"`
		Name      *string `json:"name"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	var user models.User
	if err := u.db.First(&user, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			utils.Error(ctx, http.StatusBadRequest, 40002, "name cannot be empty")
			return
		}
		user.Name = name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := u.db.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already exists")
			return
		}
		utils.Sugar.Errorf("failed to update user: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to update user")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// DeleteUser removes the account along with its refresh tokens, posts
// (including their comments and category links) and authored comments, all
// in one transaction.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	userID := ctx.Param("id")
	var user models.User
	if err := u.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		var posts []models.Post
		if err := tx.Where("author_id = ?", userID).Find(&posts).Error; err != nil {
			return err
		}
		for i := range posts {
			if err := tx.Model(&posts[i]).Association("Categories").Clear(); err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", posts[i].ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		utils.Sugar.Errorf("failed to delete user: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to delete user")
		return
	}
	utils.Success(ctx, gin.H{"message": "user deleted"})
}
