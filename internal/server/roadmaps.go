package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roadmap/internal/course"
	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/icon"
	"github.com/zulandar/roadmap/internal/models"
	"github.com/zulandar/roadmap/internal/progress"
	"github.com/zulandar/roadmap/internal/store"
	"gorm.io/gorm"
)

var errRouteNotFound = errors.New("route not found")

// Form fields of the configuration submission.
const (
	fieldRoadmap         = "roadmapconfiguration"
	fieldObjectives      = "learningobjectivesconfiguration"
	fieldColorPattern    = "phasecolorpattern"
	fieldDisplayPosition = "displayposition"
	fieldAlignment       = "cyclealignment"
	fieldDecoration      = "cycledecoration"
	fieldCLOPrefix       = "cloprefix"
)

type roadmapJSON struct {
	ID                  int64     `json:"id"`
	Course              int64     `json:"course"`
	Name                string    `json:"name"`
	CLOPrefix           string    `json:"cloprefix"`
	CycleAlignment      int       `json:"cyclealignment"`
	CycleDecoration     int       `json:"cycledecoration"`
	DisplayPosition     int       `json:"displayposition"`
	PhaseColorPattern   int       `json:"phasecolorpattern"`
	LegacyConfiguration bool      `json:"legacyconfiguration"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toRoadmapJSON(rm *models.Roadmap) roadmapJSON {
	return roadmapJSON{
		ID:                  rm.ID,
		Course:              rm.CourseID,
		Name:                rm.Name,
		CLOPrefix:           rm.CLOPrefix,
		CycleAlignment:      rm.CLOAlignment,
		CycleDecoration:     rm.CLODecoration,
		DisplayPosition:     rm.CLODisplayPosition,
		PhaseColorPattern:   rm.Colors,
		LegacyConfiguration: rm.Configuration != "",
		CreatedAt:           rm.CreatedAt,
		UpdatedAt:           rm.UpdatedAt,
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

// loadRoadmap fetches the roadmap row and imports a legacy configuration
// blob into rows the first time it is seen.
func (a *api) loadRoadmap(c *gin.Context) (*models.Roadmap, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	imported, err := store.ImportLegacy(a.db, id, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return nil, false
	}
	if imported {
		a.log.Info("imported legacy configuration", "roadmap", id)
	}
	rm, err := store.GetRoadmap(a.db, id)
	if err != nil {
		a.respondStoreError(c, err)
		return nil, false
	}
	return rm, true
}

func (a *api) listRoadmaps(c *gin.Context) {
	var courseID int64
	if q := c.Query("course"); q != "" {
		v, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_course", fmt.Errorf("invalid course %q", q))
			return
		}
		courseID = v
	}
	rows, err := store.ListRoadmaps(a.db, courseID)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	out := make([]roadmapJSON, 0, len(rows))
	for i := range rows {
		out = append(out, toRoadmapJSON(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"roadmaps": out})
}

type createRoadmapRequest struct {
	Course        int64  `json:"course" binding:"required,gt=0"`
	Name          string `json:"name" binding:"max=255"`
	Configuration string `json:"configuration"`
}

func (a *api) createRoadmap(c *gin.Context) {
	var req createRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rm, err := store.CreateRoadmap(a.db, store.CreateOpts{
		CourseID:      req.Course,
		Name:          strings.TrimSpace(req.Name),
		Configuration: req.Configuration,
	})
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoadmapJSON(rm))
}

func (a *api) getRoadmap(c *gin.Context) {
	rm, ok := a.loadRoadmap(c)
	if !ok {
		return
	}
	doc, err := store.Load(a.db, rm.ID, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roadmap":              toRoadmapJSON(rm),
		"roadmapconfiguration": doc,
	})
}

func (a *api) deleteRoadmap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := store.DeleteRoadmap(a.db, id); err != nil {
		a.respondStoreError(c, err)
		return
	}
	a.log.Info("deleted roadmap", "roadmap", id)
	c.Status(http.StatusNoContent)
}

func (a *api) getConfiguration(c *gin.Context) {
	rm, ok := a.loadRoadmap(c)
	if !ok {
		return
	}
	doc, err := store.Load(a.db, rm.ID, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	base := a.cfg.Server.BaseURL
	icon.Decorate(doc, base)
	catalog, err := icon.NewCatalog(base, icon.UsedIcons(doc)...)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	activities, err := course.ListActivities(a.db, rm.CourseID, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	settings := store.SettingsOf(rm)
	c.JSON(http.StatusOK, gin.H{
		"roadmap":            toRoadmapJSON(rm),
		fieldRoadmap:         doc,
		fieldObjectives:      settings.Objectives,
		fieldColorPattern:    rm.Colors,
		fieldDisplayPosition: rm.CLODisplayPosition,
		fieldAlignment:       rm.CLOAlignment,
		fieldDecoration:      rm.CLODecoration,
		fieldCLOPrefix:       rm.CLOPrefix,
		"colorpatterns":      a.palettes.Names(),
		"phasecolors":        a.palettes.Lookup(rm.Colors),
		"icon_data":          catalog,
		"icon_url":           strings.TrimRight(base, "/") + "/icon",
		"activity_data":      gin.H{"activities": activities},
		"maxcloprefixlength": store.MaxCLOPrefix,
	})
}

// formInt reads an integer form field, keeping current when it is absent.
func formInt(c *gin.Context, name string, current int) (int, error) {
	v, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(v) == "" {
		return current, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, v)
	}
	return n, nil
}

func (a *api) saveConfiguration(c *gin.Context) {
	rm, ok := a.loadRoadmap(c)
	if !ok {
		return
	}

	settings := store.SettingsOf(rm)
	var err error
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{fieldColorPattern, &settings.Colors},
		{fieldDisplayPosition, &settings.CLODisplayPosition},
		{fieldAlignment, &settings.CLOAlignment},
		{fieldDecoration, &settings.CLODecoration},
	} {
		if *f.dst, err = formInt(c, f.name, *f.dst); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_field", err)
			return
		}
	}
	if v, ok := c.GetPostForm(fieldCLOPrefix); ok {
		settings.CLOPrefix = strings.TrimSpace(v)
	}
	if v, ok := c.GetPostForm(fieldObjectives); ok {
		settings.Objectives = document.ParseObjectives([]byte(v))
	}
	if err := settings.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_settings", err)
		return
	}

	doc, err := document.ParseInLocation([]byte(c.PostForm(fieldRoadmap)), a.cfg.Location)
	if err != nil {
		a.log.Warn("malformed roadmap configuration, saving empty document", "roadmap", rm.ID, "error", err)
		doc = document.New()
	}

	var res *store.SaveResult
	err = a.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if res, err = store.Save(tx, rm.ID, doc, store.SaveOpts{}); err != nil {
			return err
		}
		return store.SaveSettings(tx, rm.ID, settings)
	})
	if err != nil {
		a.respondStoreError(c, err)
		return
	}
	a.log.Info("saved roadmap configuration", "roadmap", rm.ID,
		"inserted", res.Inserted, "updated", res.Updated, "deleted", res.Deleted)

	c.JSON(http.StatusOK, gin.H{
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"deleted":  res.Deleted,
	})
}

// renderProgress builds the learner view of rm for the user in the query.
func (a *api) renderProgress(c *gin.Context, rm *models.Roadmap) (*progress.View, bool) {
	userID, err := strconv.ParseInt(c.Query("user"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_user", fmt.Errorf("invalid user %q", c.Query("user")))
		return nil, false
	}
	doc, err := store.Load(a.db, rm.ID, a.cfg.Location)
	if err != nil {
		a.respondStoreError(c, err)
		return nil, false
	}
	snap, err := course.NewTracker(a.db, rm.CourseID).ForUser(userID)
	if err != nil {
		a.respondStoreError(c, err)
		return nil, false
	}
	settings := store.SettingsOf(rm)
	base := a.cfg.Server.BaseURL
	r := progress.NewRenderer(snap, progress.Options{
		Location:   a.cfg.Location,
		Palette:    a.palettes.Lookup(rm.Colors),
		Objectives: settings.Objectives,
		CLOPrefix:  settings.CLOPrefix,
		Display: progress.Display{
			Position:   rm.CLODisplayPosition,
			Alignment:  rm.CLOAlignment,
			Decoration: rm.CLODecoration,
		},
		IconURL: func(name string, percent int, color, flags string) string {
			return icon.URL(base, name, percent, color, flags)
		},
	})
	return r.Render(doc), true
}

func (a *api) getProgress(c *gin.Context) {
	rm, ok := a.loadRoadmap(c)
	if !ok {
		return
	}
	view, ok := a.renderProgress(c, rm)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roadmap":  toRoadmapJSON(rm),
		"progress": view,
	})
}

func (a *api) viewRoadmap(c *gin.Context) {
	rm, ok := a.loadRoadmap(c)
	if !ok {
		return
	}
	view, ok := a.renderProgress(c, rm)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "roadmap.html", gin.H{
		"Roadmap":   rm,
		"View":      view,
		"CLOHidden": view.Position == models.CLOHidden,
		"CLOBelow":  view.Position == models.CLOBelow,
	})
}
