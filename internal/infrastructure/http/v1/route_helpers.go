package v1

import (
	"github.com/gin-gonic/gin"

	"retailpos/internal/infrastructure/http/v1/middleware"
)

// ResourceRouteHandler is a handler exposing the standard CRUD endpoints.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterResourceRoutes registers CRUD routes guarded by a view and a write
// permission.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, cfg.Products)
//	RegisterResourceRoutes(api.Group("/products"), handler, security.PermArticlesView, security.PermArticlesWrite)
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler, viewPerm, writePerm string) {
	group.GET("", middleware.RequirePermission(viewPerm), handler.List)
	group.POST("", middleware.RequirePermission(writePerm), handler.Create)
	group.GET("/:id", middleware.RequirePermission(viewPerm), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(writePerm), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(writePerm), handler.Delete)
}
