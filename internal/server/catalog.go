package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roadmap/internal/course"
	"github.com/zulandar/roadmap/internal/icon"
)

func (a *api) listActivities(c *gin.Context) {
	courseID, ok := parseID(c, "id")
	if !ok {
		return
	}
	bySection := true
	if q := c.Query("sections"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_sections", fmt.Errorf("invalid sections %q", q))
			return
		}
		bySection = v
	}
	if bySection {
		sections, err := course.ListSections(a.db, courseID, a.cfg.Location)
		if err != nil {
			a.respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sections": sections})
		return
	}
	activities, err := course.ListActivities(a.db, courseID, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (a *api) listColorSets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"colorsets": a.palettes.Names()})
}

// getColorSet returns a palette's colors; ids that are not numbers or not
// configured get the default palette.
func (a *api) getColorSet(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		id = -1
	}
	c.JSON(http.StatusOK, a.palettes.Lookup(id))
}

func (a *api) listIcons(c *gin.Context) {
	catalog, err := icon.NewCatalog(a.cfg.Server.BaseURL)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// composeIcon serves a step icon. Unknown names get an empty 404.
func (a *api) composeIcon(c *gin.Context) {
	percent := 0.0
	if q := c.Query("percent"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			respondError(c, http.StatusBadRequest, "invalid_percent", fmt.Errorf("invalid percent %q", q))
			return
		}
		percent = v
	}
	svg, err := icon.Compose(c.Query("name"), percent, c.Query("color"), c.Query("flags"))
	if errors.Is(err, icon.ErrUnknownIcon) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		a.respondStoreError(c, err)
		return
	}

	ttl := a.cfg.Server.IconCacheSeconds
	c.Header("Expires", time.Now().Add(time.Duration(ttl)*time.Second).UTC().Format(http.TimeFormat))
	c.Header("Pragma", "cache")
	c.Header("Cache-Control", fmt.Sprintf("max-age=%d", ttl))
	c.Data(http.StatusOK, "image/svg+xml", svg)
}
