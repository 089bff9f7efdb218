package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/blob"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.mediaDir != "" {
		router.Static(blob.MediaPrefix, s.mediaDir)
	}

	api := router.Group("/api")
	api.POST("/auth/signup", s.handleSignUp)
	api.POST("/auth/signin", s.handleSignIn)

	authed := api.Group("", auth.Middleware(s.auth))
	authed.POST("/auth/signout", s.handleSignOut)

	// Feedback.
	authed.GET("/feedback-sources", s.handleListSources)
	authed.POST("/feedback-sources", s.handleCreateSource)
	authed.PATCH("/feedback-sources/:id/status", s.handleSourceStatus)
	authed.GET("/feedback-sources/:id/analyses", s.handleListAnalyses)
	authed.POST("/feedback-sources/:id/reanalyze", s.handleReanalyze)
	authed.POST("/voc/analyze", s.handleAnalyze)

	// Tasks.
	authed.GET("/tasks", s.handleListTasks)
	authed.POST("/tasks", s.handleCreateTask)
	authed.GET("/tasks/:id", s.handleGetTask)
	authed.PATCH("/tasks/:id/status", s.handleTaskStatus)
	authed.POST("/tasks/:id/prd", s.handleGeneratePRD)

	// PRDs.
	authed.GET("/prds", s.handleListPRDs)
	authed.POST("/prds", s.handleCreatePRD)
	authed.GET("/prds/:id", s.handleGetPRD)
	authed.PUT("/prds/:id", s.handleSavePRD)
	authed.PATCH("/prds/:id/status", s.handlePRDStatus)
	authed.GET("/prds/:id/chat", s.handleChatHistory)
	authed.POST("/prds/:id/chat", s.handleChat)
	authed.POST("/prds/:id/publish", s.handlePublishPRD)
	authed.GET("/prds/:id/launch", s.handleGetLaunch)

	// Launches.
	authed.PUT("/launches/:id/images/:slot", s.handleUploadImage)
	authed.POST("/launches/:id/content", s.handleGenerateContent)
	authed.PATCH("/launches/:id/status", s.handleLaunchStatus)

	// Content assets.
	authed.GET("/content-assets", s.handleListContent)
	authed.POST("/content-assets", s.handleCreateContent)
	authed.GET("/content-assets/:id", s.handleGetContent)
	authed.PATCH("/content-assets/:id/status", s.handleContentStatus)
	authed.POST("/content-assets/:id/publish", s.handlePublishContent)

	authed.GET("/stats", s.handleStats)
	authed.GET("/events", s.handleEvents)
}
