package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the console handlers mounted under the API prefix.
type Routes struct {
	Session  *SessionHandler
	Teachers *TeacherHandler
	Students *StudentHandler
	Parents  *ParentHandler
	Cache    *CacheHandler
	Metrics  *MetricsHandler
}

// Register mounts the console API on api. Sign-in, sign-up and the session
// probe stay open; everything touching a roster runs behind guards, in order.
func (r Routes) Register(api gin.IRouter, guards ...gin.HandlerFunc) {
	api.POST("/session/login", r.Session.Login)
	api.POST("/session/logout", r.Session.Logout)
	api.GET("/session", r.Session.Current)
	api.POST("/session/refresh", r.Session.Refresh)
	api.POST("/register", r.Session.Register)

	secured := api.Group("", guards...)

	teachers := secured.Group("/teachers")
	teachers.GET("", r.Teachers.List)
	teachers.GET("/export", r.Teachers.Export)
	teachers.GET("/:id", r.Teachers.Get)
	teachers.POST("", r.Teachers.Create)
	teachers.PUT("/:id", r.Teachers.Update)

	students := secured.Group("/students")
	students.GET("", r.Students.List)
	students.GET("/export", r.Students.Export)
	students.GET("/:id", r.Students.Get)
	students.POST("", r.Students.Create)
	students.PUT("/:id", r.Students.Update)
	students.DELETE("/:id", r.Students.Delete)

	parents := secured.Group("/parents")
	parents.GET("", r.Parents.List)
	parents.GET("/export", r.Parents.Export)
	parents.GET("/:id", r.Parents.Get)
	parents.POST("", r.Parents.Create)
	parents.PUT("/:id", r.Parents.Update)

	cache := api.Group("/cache")
	cache.GET("", r.Cache.Status)
	cache.POST("/invalidate", r.Cache.Invalidate)
	cache.POST("/persist", r.Cache.Persist)
	cache.DELETE("", r.Cache.Clear)

	api.GET("/metrics/summary", r.Metrics.Snapshot)
}
