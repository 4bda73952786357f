package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roadmap/internal/config"
	"github.com/zulandar/roadmap/internal/logger"
	"github.com/zulandar/roadmap/internal/palette"
	"gorm.io/gorm"
)

// api carries the dependencies shared by all handlers.
type api struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *logger.Logger
	palettes *palette.Registry
}

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, a *api) {
	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Pages.
	router.GET("/roadmaps/:id", a.viewRoadmap)

	// Dynamic icons.
	router.GET("/icon", a.composeIcon)

	apiGroup := router.Group("/api")
	apiGroup.GET("/roadmaps", a.listRoadmaps)
	apiGroup.POST("/roadmaps", a.createRoadmap)
	apiGroup.GET("/roadmaps/:id", a.getRoadmap)
	apiGroup.DELETE("/roadmaps/:id", a.deleteRoadmap)
	apiGroup.GET("/roadmaps/:id/configuration", a.getConfiguration)
	apiGroup.POST("/roadmaps/:id/configuration", a.saveConfiguration)
	apiGroup.GET("/roadmaps/:id/progress", a.getProgress)

	apiGroup.GET("/courses/:id/activities", a.listActivities)
	apiGroup.GET("/colors", a.listColorSets)
	apiGroup.GET("/colors/:id", a.getColorSet)
	apiGroup.GET("/icons", a.listIcons)

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", errRouteNotFound)
	})
}
