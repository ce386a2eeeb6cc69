package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// CategoryController manages post categories. Mutation requires
// authentication but categories carry no ownership.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// CreateCategory adds a category with a unique slug. The pre-check yields a
// friendly conflict message; the unique index catches concurrent creation.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
		Slug string `json:"slug" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "name cannot be empty")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		utils.Error(ctx, http.StatusBadRequest, 40042, "slug may only contain lowercase letters, digits and hyphens")
		return
	}

	var existing models.Category
	if err := c.db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40902, "category slug already exists")
		return
	}

	category := models.Category{Name: name, Slug: req.Slug}
	if err := c.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40902, "category slug already exists")
			return
		}
		utils.Sugar.Errorf("failed to create category: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create category")
		return
	}
	utils.Created(ctx, gin.H{"category": category})
}

// ListCategories returns all categories sorted by name.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("name ASC").Find(&categories).Error; err != nil {
		utils.Sugar.Errorf("failed to list categories: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"categories": categories})
}

// GetCategory returns a category with its posts.
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	var category models.Category
	err := c.db.Preload("Posts").Preload("Posts.Author").First(&category, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load category")
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// UpdateCategory renames a category or changes its slug.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	var category models.Category
	if err := c.db.First(&category, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load category")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if req.Slug != "" {
		if !slugPattern.MatchString(req.Slug) {
			utils.Error(ctx, http.StatusBadRequest, 40042, "slug may only contain lowercase letters, digits and hyphens")
			return
		}
		var other models.Category
		if err := c.db.Where("slug = ? AND id <> ?", req.Slug, category.ID).First(&other).Error; err == nil {
			utils.Error(ctx, http.StatusConflict, 40902, "category slug already exists")
			return
		}
		category.Slug = req.Slug
	}

	if err := c.db.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40902, "category slug already exists")
			return
		}
		utils.Sugar.Errorf("failed to update category: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to update category")
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// DeleteCategory removes a category and its post links.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load category")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&category).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		utils.Sugar.Errorf("failed to delete category: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to delete category")
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
