package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/controllers"
	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/utils"
)

// SetupRouter builds the gin engine with logging, recovery and CORS, then
// mounts the API routes.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	RegisterRoutes(r, db)
	return r
}

// RegisterRoutes wires every API endpoint onto the given engine.
func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	categoryController := controllers.NewCategoryController(db)

	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", userController.Register)
		users.POST("/login", userController.Login)
		users.POST("/refresh-token", userController.RefreshToken)
	}

	usersAuth := api.Group("/users")
	usersAuth.Use(middleware.AuthRequired())
	{
		usersAuth.POST("/logout", userController.Logout)
		usersAuth.GET("/:id", userController.GetUser)
		usersAuth.PUT("/:id", userController.UpdateUser)
		usersAuth.DELETE("/:id", userController.DeleteUser)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", postController.ListPosts)
		posts.GET("/:id", postController.GetPost)
		posts.GET("/:id/comments", commentController.ListComments)
	}

	postsAuth := api.Group("/posts")
	postsAuth.Use(middleware.AuthRequired())
	{
		postsAuth.POST("", postController.CreatePost)
		postsAuth.PUT("/:id", postController.UpdatePost)
		postsAuth.DELETE("/:id", postController.DeletePost)
		postsAuth.POST("/:id/comments", commentController.CreateComment)
	}

	commentsAuth := api.Group("/comments")
	commentsAuth.Use(middleware.AuthRequired())
	{
		commentsAuth.PUT("/:id", commentController.UpdateComment)
		commentsAuth.DELETE("/:id", commentController.DeleteComment)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryController.ListCategories)
		categories.GET("/:id", categoryController.GetCategory)
	}

	categoriesAuth := api.Group("/categories")
	categoriesAuth.Use(middleware.AuthRequired())
	{
		categoriesAuth.POST("", categoryController.CreateCategory)
		categoriesAuth.PUT("/:id", categoryController.UpdateCategory)
		categoriesAuth.DELETE("/:id", categoryController.DeleteCategory)
	}
}
