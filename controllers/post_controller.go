package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// serializePost renders the raw markdown into sanitized HTML for the
// response; the stored content stays raw.
func serializePost(post models.Post, withComments bool) gin.H {
	out := gin.H{
		"id":           post.ID,
		"title":        post.Title,
		"content":      post.Content,
		"content_html": utils.RenderMarkdown(post.Content),
		"author":       authorSummary(post.Author),
		"categories":   categorySummaries(post.Categories),
		"created_at":   post.CreatedAt,
		"updated_at":   post.UpdatedAt,
	}
	if withComments {
		comments := make([]gin.H, 0, len(post.Comments))
		for _, c := range post.Comments {
			comments = append(comments, gin.H{
				"id":         c.ID,
				"content":    c.Content,
				"author":     authorSummary(c.Author),
				"created_at": c.CreatedAt,
			})
		}
		out["comments"] = comments
	}
	return out
}

func authorSummary(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"avatar_url": user.AvatarURL,
	}
}

func categorySummaries(categories []models.Category) []gin.H {
	out := make([]gin.H, 0, len(categories))
	for _, c := range categories {
		out = append(out, gin.H{"id": c.ID, "name": c.Name, "slug": c.Slug})
	}
	return out
}

// parsePagination reads page/limit query params. Absent params fall back to
// defaults; explicitly supplied values below 1 (or non-numeric) are rejected.
func parsePagination(ctx *gin.Context) (page, limit int, ok bool) {
	page, limit = 1, 10
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}

// resolveCategories loads the referenced categories, failing when any id is
// unknown. Repeated ids count once.
func (p *PostController) resolveCategories(ids []string) ([]models.Category, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	var categories []models.Category
	if err := p.db.Where("id IN ?", unique).Find(&categories).Error; err != nil {
		return nil, false
	}
	if len(categories) != len(unique) {
		return nil, false
	}
	return categories, true
}

// CreatePost allows authenticated users to publish new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required,min=1"`
		Content     string   `json:"content" binding:"required"`
		CategoryIDs []string `json:"category_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	callerID, ok := middleware.CallerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	categories, ok := p.resolveCategories(req.CategoryIDs)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "unknown category id")
		return
	}

	post := models.Post{
		Title:      title,
		Content:    req.Content,
		AuthorID:   callerID,
		Categories: categories,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Sugar.Errorf("failed to create post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	if err := p.db.Preload("Author").Preload("Categories").First(&post, "id = ?", post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}
	utils.Created(ctx, gin.H{"post": serializePost(post, false)})
}

// ListPosts returns paginated posts with optional substring search and
// category slug filtering, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit, ok := parsePagination(ctx)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid page or limit")
		return
	}
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	query := p.db.Model(&models.Post{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", like, like)
	}
	if category != "" {
		query = query.
			Joins("JOIN post_categories ON post_categories.post_id = posts.id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ?", category)
	}
	// New session so the count and the page query do not share statement state.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Sugar.Errorf("failed to count posts: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to count posts")
		return
	}

	var posts []models.Post
	err := query.
		Preload("Author").
		Preload("Categories").
		Order("posts.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.Sugar.Errorf("failed to list posts: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list posts")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		items = append(items, serializePost(post, false))
	}
	utils.Success(ctx, gin.H{
		"posts": items,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": int((total + int64(limit) - 1) / int64(limit)),
		},
	})
}

// GetPost returns a single post with author, categories and comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	var post models.Post
	err := p.db.
		Preload("Author").
		Preload("Categories").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.Author").
		First(&post, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": serializePost(post, true)})
}

// UpdatePost allows the author to modify a post; the category set, when
// supplied, is replaced wholesale inside the same transaction as the field
// update.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title       string    `json:"title" binding:"required,min=1"`
		Content     string    `json:"content" binding:"required"`
		CategoryIDs *[]string `json:"category_ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	var post models.Post
	if err := p.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
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
	if post.AuthorID != callerID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own posts")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "content cannot be empty")
		return
	}

	var categories []models.Category
	if req.CategoryIDs != nil {
		categories, ok = p.resolveCategories(*req.CategoryIDs)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40023, "unknown category id")
			return
		}
	}

	post.Title = title
	post.Content = req.Content
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&post).Error; err != nil {
			return err
		}
		if req.CategoryIDs != nil {
			return tx.Model(&post).Association("Categories").Replace(categories)
		}
		return nil
	})
	if err != nil {
		utils.Sugar.Errorf("failed to update post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update post")
		return
	}

	if err := p.db.Preload("Author").Preload("Categories").First(&post, "id = ?", post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": serializePost(post, false)})
}

// DeletePost allows the author to delete a post together with its comments
// and category links.
func (p *PostController) DeletePost(ctx *gin.Context) {
	var post models.Post
	if err := p.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
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
	if post.AuthorID != callerID {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("failed to delete post: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}
