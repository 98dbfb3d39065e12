package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library/internal/services"
)

// API bundles the services behind the HTTP surface.
type API struct {
	users      services.UserService
	books      services.BookService
	categories services.CategoryService
	analytics  services.AnalyticsService
	tokens     *TokenIssuer
	maxUpload  int64
}

func NewAPI(
	users services.UserService,
	books services.BookService,
	categories services.CategoryService,
	analytics services.AnalyticsService,
	tokens *TokenIssuer,
	maxUpload int64,
) *API {
	return &API{
		users:      users,
		books:      books,
		categories: categories,
		analytics:  analytics,
		tokens:     tokens,
		maxUpload:  maxUpload,
	}
}

// RegisterRoutes mounts the full API under /api. Everything except
// register/login requires a valid token.
func RegisterRoutes(r *gin.Engine, api *API) {
	root := r.Group("/api")

	auth := root.Group("/auth")
	{
		auth.POST("/register", api.register)
		auth.POST("/login", api.login)
		auth.GET("/profile", authRequired(api.tokens), api.getProfile)
		auth.PUT("/profile", authRequired(api.tokens), api.updateProfile)
		auth.GET("/users", authRequired(api.tokens), adminRequired(), api.listUsers)
		auth.DELETE("/users/:id", authRequired(api.tokens), adminRequired(), api.deleteUser)
	}

	books := root.Group("/books", authRequired(api.tokens))
	{
		books.GET("", api.listBooks)
		books.GET("/mybooks", api.listMyBooks)
		books.GET("/:id", api.getBook)
		books.POST("", api.createBook)
		books.PUT("/:id", api.updateBook)
		books.DELETE("/:id", api.deleteBook)
	}

	categories := root.Group("/categories", authRequired(api.tokens))
	{
		categories.GET("", api.listCategories)
		categories.POST("", api.createCategory)
		categories.GET("/:id", api.getCategory)
		categories.PUT("/:id", api.updateCategory)
		categories.DELETE("/:id", api.deleteCategory)
	}

	analytics := root.Group("/analytics", authRequired(api.tokens))
	{
		analytics.GET("/summary", api.analyticsSummary)
		analytics.GET("/books-by-category", api.analyticsBooksByCategory)
		analytics.GET("/books-by-author", api.analyticsBooksByAuthor)
		analytics.GET("/books-by-month", api.analyticsBooksByMonth)
		analytics.GET("/user-stats", api.analyticsUserStats)
	}
}

// respondError maps service error kinds to HTTP statuses. Forbidden is
// surfaced without detail so ownership information does not leak.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
		return
	}
	var cerr *services.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"errors": gin.H{cerr.Field: cerr.Message}})
		return
	}

	switch {
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCategoryInUse),
		errors.Is(err, services.ErrCannotDeleteSelf):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
