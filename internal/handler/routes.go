package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/acadsys/records-api/internal/middleware"
	"github.com/acadsys/records-api/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *AuthHandler
	Courses     *CourseHandler
	Students    *StudentHandler
	Classes     *ClassHandler
	Enrollments *EnrollmentHandler
}

// RegisterRoutes mounts the API under prefix. Auth routes stay public,
// everything else requires a valid bearer token.
func RegisterRoutes(r *gin.Engine, prefix string, authSvc *service.AuthService, h *Handlers) {
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		courses := protected.Group("/courses")
		{
			courses.GET("", h.Courses.List)
			courses.POST("", h.Courses.Create)
			courses.PUT("/:id", h.Courses.Update)
			courses.DELETE("/:id", h.Courses.Delete)
		}

		students := protected.Group("/students")
		{
			students.GET("", h.Students.List)
			students.POST("", h.Students.Create)
			students.PUT("/:id", h.Students.Update)
			students.DELETE("/:id", h.Students.Delete)
		}

		classes := protected.Group("/classes")
		{
			classes.GET("", h.Classes.List)
			classes.POST("", h.Classes.Create)
			classes.PUT("/:id", h.Classes.Update)
			classes.DELETE("/:id", h.Classes.Delete)
		}

		enrollments := protected.Group("/enrollments")
		{
			enrollments.GET("", h.Enrollments.List)
			enrollments.POST("", h.Enrollments.Create)
			enrollments.PUT("/:id", h.Enrollments.Update)
			enrollments.DELETE("/:id", h.Enrollments.Delete)
		}
	}
}
