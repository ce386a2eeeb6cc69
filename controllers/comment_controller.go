package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// CommentController manages replies to posts.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

func serializeComment(comment models.Comment) gin.H {
	return gin.H{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"content":    comment.Content,
		"author":     authorSummary(comment.Author),
		"created_at": comment.CreatedAt,
		"updated_at": comment.UpdatedAt,
	}
}

// CreateComment adds a reply to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content cannot be empty")
		return
	}

	var post models.Post
	if err := c.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: callerID,
		Content:  content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Sugar.Errorf("failed to create comment: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create comment")
		return
	}
	if err := c.db.Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load comment")
		return
	}
	utils.Created(ctx, gin.H{"comment": serializeComment(comment)})
}

// ListComments returns the comments of a post, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	var post models.Post
	if err := c.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	var comments []models.Comment
	if err := c.db.Preload("Author").Where("post_id = ?", post.ID).Order("created_at DESC").Find(&comments).Error; err != nil {
		utils.Sugar.Errorf("failed to list comments: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to list comments")
		return
	}

	items := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		items = append(items, serializeComment(comment))
	}
	utils.Success(ctx, gin.H{"comments": items})
}

// UpdateComment allows the author to edit their comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content cannot be empty")
		return
	}

	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load comment")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if comment.AuthorID != callerID {
		utils.Error(ctx, http.StatusForbidden, 40303, "you can only update your own comments")
		return
	}

	comment.Content = content
	if err := c.db.Save(&comment).Error; err != nil {
		utils.Sugar.Errorf("failed to update comment: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to update comment")
		return
	}
	if err := c.db.Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load comment")
		return
	}
	utils.Success(ctx, gin.H{"comment": serializeComment(comment)})
}

// DeleteComment allows the author to remove their comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	var comment models.Comment
	if err := c.db.First(&comment, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load comment")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if comment.AuthorID != callerID {
		utils.Error(ctx, http.StatusForbidden, 40304, "you can only delete your own comments")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Sugar.Errorf("failed to delete comment: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
