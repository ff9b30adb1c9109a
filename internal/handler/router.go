package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/models"
)

// Handlers groups every API handler mounted under the API prefix.
// Exports may be nil when export jobs are disabled.
type Handlers struct {
	Registration *RegistrationHandler
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Courses      *CourseHandler
	Rosters      *RosterHandler
	Exports      *ExportHandler
	Posts        *PostHandler
}

// RouteConfig carries the cross-cutting dependencies of the route table.
type RouteConfig struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
	Logger *zap.Logger
}

// RegisterRoutes mounts the public and JWT protected routes on api.
func RegisterRoutes(api gin.IRouter, h Handlers, cfg RouteConfig) {
	admin := string(models.RoleSchoolAdmin)
	teacher := string(models.RoleTeacher)

	api.POST("/register/student", h.Registration.RegisterStudent)
	api.POST("/register/teacher", h.Registration.RegisterTeacher)
	api.POST("/register-teacher", h.Registration.RegisterTeacher)
	api.POST("/register/parent", h.Registration.RegisterParent)
	api.POST("/register/school-admin", h.Registration.RegisterSchoolAdmin)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/taken-subjects/:grade/:section", h.Courses.TakenSubjects)

	if h.Exports != nil {
		api.GET("/exports/download/:token",
			middleware.OptionalJWT(cfg.Tokens),
			middleware.Audit(cfg.Audit, cfg.Logger, models.AuditActionExportDownload, "export", "token"),
			h.Exports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(cfg.Tokens))

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/users/:userId/profile-image", middleware.RBAC(middleware.RoleSelf, admin), h.Profile.UploadImage)

	secured.GET("/teacher-courses/:teacherKey", h.Courses.TeacherCourses)
	secured.GET("/teacher-students/:teacherKey", h.Rosters.TeacherStudents)
	secured.GET("/courses", h.Courses.List)
	secured.GET("/course-students/:courseId", h.Rosters.CourseStudents)
	secured.POST("/course-update-marks/:courseId", middleware.RBAC(teacher, admin), h.Rosters.UpdateMarks)
	secured.PATCH("/students/:studentId/placement", middleware.RBAC(admin), h.Rosters.MoveStudent)

	if h.Exports != nil {
		secured.POST("/courses/:courseId/exports", middleware.RBAC(teacher, admin), h.Exports.Create)
		secured.GET("/exports/:id", h.Exports.Status)
	}

	posts := secured.Group("/posts")
	posts.GET("", h.Posts.List)
	posts.POST("", middleware.RBAC(teacher, admin), h.Posts.Create)
	posts.GET("/author/:userId", h.Posts.ListByAuthor)
	posts.PUT("/:postId", h.Posts.Update)
	posts.DELETE("/:postId", h.Posts.Delete)
	posts.POST("/:postId/like", h.Posts.ToggleLike)
}
