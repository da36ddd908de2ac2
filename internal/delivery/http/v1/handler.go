package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/services"
)

type Handler interface {
	HandleSignUp(c *gin.Context)
	HandleSignIn(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleSignOut(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetProfile(c *gin.Context)
	HandleCreateProfile(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	profiles services.ProfileService
	tasks    services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	profileService services.ProfileService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     authService,
		sessions: sessionService,
		profiles: profileService,
		tasks:    taskService,
	}
}

// RegisterRoutes mounts the v1 API on router.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/signup", h.HandleSignUp)
	authRouter.POST("/signin", h.HandleSignIn)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/signout", h.HandleAuthMiddleware, h.HandleSignOut)

	usersRouter := router.Group("/users", h.HandleAuthMiddleware)
	usersRouter.GET("/:id", h.HandleGetProfile)
	usersRouter.POST("", h.HandleCreateProfile)

	tasksRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.PATCH("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
}
