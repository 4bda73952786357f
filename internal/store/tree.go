package store

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/models"
	"gorm.io/gorm"
)

// SaveOpts controls how a submitted document is written.
type SaveOpts struct {
	// Conversion inserts every node as new, ignoring submitted ids. It is
	// used for one-time imports of the legacy configuration blob and for
	// copying a tree into another roadmap.
	Conversion bool
}

// SaveResult counts the rows a save touched.
type SaveResult struct {
	Inserted int
	Updated  int
	Deleted  int
}

func orderBySort(db *gorm.DB) *gorm.DB { return db.Order("sort ASC, id ASC") }

// Load reads a roadmap's tree ordered by sort at every level. Steps carry a
// readable expected completion formatted in loc.
func Load(db *gorm.DB, roadmapID int64, loc *time.Location) (*document.Document, error) {
	if _, err := GetRoadmap(db, roadmapID); err != nil {
		return nil, err
	}

	var phases []models.Phase
	err := db.Where("roadmapid = ?", roadmapID).
		Scopes(orderBySort).
		Preload("Cycles", orderBySort).
		Preload("Cycles.Steps", orderBySort).
		Find(&phases).Error
	if err != nil {
		return nil, fmt.Errorf("store: load roadmap %d: %w", roadmapID, err)
	}

	doc := document.New()
	for _, p := range phases {
		dp := document.Phase{
			ID:        document.Int(p.ID),
			RoadmapID: document.Int(p.RoadmapID),
			Title:     p.Title,
			Sort:      p.Sort,
			Index:     len(doc.Phases),
			Number:    len(doc.Phases) + 1,
			Cycles:    make([]document.Cycle, 0, len(p.Cycles)),
		}
		for ci, c := range p.Cycles {
			dc := document.Cycle{
				ID:                 document.Int(c.ID),
				PhaseID:            document.Int(c.PhaseID),
				Title:              c.Title,
				Subtitle:           c.Subtitle,
				PageLink:           c.PageLink,
				LearningObjectives: c.LearningObjectives,
				Sort:               c.Sort,
				Index:              ci,
				Number:             ci + 1,
				Steps:              make([]document.Step, 0, len(c.Steps)),
			}
			for si, s := range c.Steps {
				dc.Steps = append(dc.Steps, document.Step{
					ID:                         document.Int(s.ID),
					CycleID:                    document.Int(s.CycleID),
					RolloverText:               s.RolloverText,
					StepIcon:                   s.StepIcon,
					CompletionModules:          s.CompletionModules,
					LinkSingleActivity:         document.Flag(s.LinkSingleActivity),
					PageLink:                   s.PageLink,
					CompletionExpectedCmid:     document.Int(s.CompletionExpectedCmid),
					CompletionExpectedDatetime: document.Int(s.CompletionExpectedDatetime),
					CompletionExpectedReadable: document.ExpectedReadable(s.CompletionExpectedCmid, s.CompletionExpectedDatetime, loc),
					Sort:                       s.Sort,
					Index:                      si,
					Number:                     si + 1,
				})
			}
			dp.Cycles = append(dp.Cycles, dc)
		}
		doc.Phases = append(doc.Phases, dp)
	}
	return doc, nil
}

// Save applies a submitted document to a roadmap in one transaction.
// Pending deletions are processed first, then every submitted node is
// updated when its id exists under this roadmap and inserted otherwise,
// with sort set to its position in the submission.
func Save(db *gorm.DB, roadmapID int64, doc *document.Document, opts SaveOpts) (*SaveResult, error) {
	if _, err := GetRoadmap(db, roadmapID); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = document.New()
	}

	res := &SaveResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := applyDeletions(tx, roadmapID, doc.Deletions, res); err != nil {
			return err
		}
		for pi, p := range doc.Phases {
			if err := savePhase(tx, roadmapID, pi, p, opts, res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func applyDeletions(tx *gorm.DB, roadmapID int64, d document.Deletions, res *SaveResult) error {
	for _, id := range d.Phases {
		n, err := deletePhase(tx, roadmapID, id)
		if err != nil {
			return err
		}
		res.Deleted += n
	}
	for _, id := range d.Cycles {
		n, err := deleteCycle(tx, roadmapID, id)
		if err != nil {
			return err
		}
		res.Deleted += n
	}
	for _, id := range d.Steps {
		ok, err := stepInRoadmap(tx, roadmapID, id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		result := tx.Delete(&models.Step{}, id)
		if result.Error != nil {
			return fmt.Errorf("store: delete step %d: %w", id, result.Error)
		}
		res.Deleted += int(result.RowsAffected)
	}
	return nil
}

// deletePhase removes a phase of this roadmap with its cycles and steps.
func deletePhase(tx *gorm.DB, roadmapID, phaseID int64) (int, error) {
	ok, err := phaseInRoadmap(tx, roadmapID, phaseID)
	if err != nil || !ok {
		return 0, err
	}
	var cycleIDs []int64
	if err := tx.Model(&models.Cycle{}).Where("phaseid = ?", phaseID).Pluck("id", &cycleIDs).Error; err != nil {
		return 0, fmt.Errorf("store: list cycles of phase %d: %w", phaseID, err)
	}
	deleted := 0
	for _, cid := range cycleIDs {
		n, err := deleteCycleRows(tx, cid)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	result := tx.Delete(&models.Phase{}, phaseID)
	if result.Error != nil {
		return deleted, fmt.Errorf("store: delete phase %d: %w", phaseID, result.Error)
	}
	return deleted + int(result.RowsAffected), nil
}

// deleteCycle removes a cycle of this roadmap with its steps.
func deleteCycle(tx *gorm.DB, roadmapID, cycleID int64) (int, error) {
	ok, err := cycleInRoadmap(tx, roadmapID, cycleID)
	if err != nil || !ok {
		return 0, err
	}
	return deleteCycleRows(tx, cycleID)
}

func deleteCycleRows(tx *gorm.DB, cycleID int64) (int, error) {
	steps := tx.Where("cycleid = ?", cycleID).Delete(&models.Step{})
	if steps.Error != nil {
		return 0, fmt.Errorf("store: delete steps of cycle %d: %w", cycleID, steps.Error)
	}
	cycle := tx.Delete(&models.Cycle{}, cycleID)
	if cycle.Error != nil {
		return int(steps.RowsAffected), fmt.Errorf("store: delete cycle %d: %w", cycleID, cycle.Error)
	}
	return int(steps.RowsAffected + cycle.RowsAffected), nil
}

func phaseInRoadmap(tx *gorm.DB, roadmapID, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	var count int64
	err := tx.Model(&models.Phase{}).
		Where("roadmapid = ? AND id = ?", roadmapID, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: look up phase %d: %w", id, err)
	}
	return count > 0, nil
}

func cycleInRoadmap(tx *gorm.DB, roadmapID, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	var count int64
	err := tx.Model(&models.Cycle{}).
		Joins("JOIN roadmap_phase rp ON rp.id = roadmap_cycle.phaseid").
		Where("rp.roadmapid = ? AND roadmap_cycle.id = ?", roadmapID, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: look up cycle %d: %w", id, err)
	}
	return count > 0, nil
}

func stepInRoadmap(tx *gorm.DB, roadmapID, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	var count int64
	err := tx.Model(&models.Step{}).
		Joins("JOIN roadmap_cycle rc ON rc.id = roadmap_step.cycleid").
		Joins("JOIN roadmap_phase rp ON rp.id = rc.phaseid").
		Where("rp.roadmapid = ? AND roadmap_step.id = ?", roadmapID, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: look up step %d: %w", id, err)
	}
	return count > 0, nil
}

func savePhase(tx *gorm.DB, roadmapID int64, sort int, p document.Phase, opts SaveOpts, res *SaveResult) error {
	title := p.Title
	if title == "" {
		title = "Phase " + strconv.Itoa(sort+1)
	}
	row := models.Phase{RoadmapID: roadmapID, Title: title, Sort: sort}

	exists, err := phaseInRoadmap(tx, roadmapID, int64(p.ID))
	if err != nil {
		return err
	}
	if exists && !opts.Conversion {
		row.ID = int64(p.ID)
		if err := tx.Model(&models.Phase{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"title":     row.Title,
			"sort":      row.Sort,
			"roadmapid": row.RoadmapID,
		}).Error; err != nil {
			return fmt.Errorf("store: update phase %d: %w", row.ID, err)
		}
		res.Updated++
	} else {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("store: insert phase %q: %w", row.Title, err)
		}
		res.Inserted++
	}

	for ci, c := range p.Cycles {
		if err := saveCycle(tx, roadmapID, row.ID, ci, c, opts, res); err != nil {
			return err
		}
	}
	return nil
}

func saveCycle(tx *gorm.DB, roadmapID, phaseID int64, sort int, c document.Cycle, opts SaveOpts, res *SaveResult) error {
	title := c.Title
	if title == "" {
		title = "Cycle " + strconv.Itoa(sort+1)
	}
	row := models.Cycle{
		PhaseID:            phaseID,
		Title:              title,
		Subtitle:           c.Subtitle,
		PageLink:           c.PageLink,
		LearningObjectives: c.LearningObjectives,
		Sort:               sort,
	}

	exists, err := cycleInRoadmap(tx, roadmapID, int64(c.ID))
	if err != nil {
		return err
	}
	if exists && !opts.Conversion {
		row.ID = int64(c.ID)
		if err := tx.Model(&models.Cycle{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"title":              row.Title,
			"subtitle":           row.Subtitle,
			"pagelink":           row.PageLink,
			"learningobjectives": row.LearningObjectives,
			"sort":               row.Sort,
			"phaseid":            row.PhaseID,
		}).Error; err != nil {
			return fmt.Errorf("store: update cycle %d: %w", row.ID, err)
		}
		res.Updated++
	} else {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("store: insert cycle %q: %w", row.Title, err)
		}
		res.Inserted++
	}

	for si, s := range c.Steps {
		if err := saveStep(tx, roadmapID, row.ID, si, s, opts, res); err != nil {
			return err
		}
	}
	return nil
}

func saveStep(tx *gorm.DB, roadmapID, cycleID int64, sort int, s document.Step, opts SaveOpts, res *SaveResult) error {
	row := models.Step{
		CycleID:                    cycleID,
		RolloverText:               s.RolloverText,
		StepIcon:                   s.StepIcon,
		CompletionModules:          s.CompletionModules,
		LinkSingleActivity:         bool(s.LinkSingleActivity),
		PageLink:                   s.PageLink,
		CompletionExpectedCmid:     int64(s.CompletionExpectedCmid),
		CompletionExpectedDatetime: int64(s.CompletionExpectedDatetime),
		Sort:                       sort,
	}

	exists, err := stepInRoadmap(tx, roadmapID, int64(s.ID))
	if err != nil {
		return err
	}
	if exists && !opts.Conversion {
		row.ID = int64(s.ID)
		if err := tx.Model(&models.Step{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"rollovertext":               row.RolloverText,
			"stepicon":                   row.StepIcon,
			"completionmodules":          row.CompletionModules,
			"linksingleactivity":         row.LinkSingleActivity,
			"pagelink":                   row.PageLink,
			"completionexpectedcmid":     row.CompletionExpectedCmid,
			"completionexpecteddatetime": row.CompletionExpectedDatetime,
			"sort":                       row.Sort,
			"cycleid":                    row.CycleID,
		}).Error; err != nil {
			return fmt.Errorf("store: update step %d: %w", row.ID, err)
		}
		res.Updated++
		return nil
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("store: insert step: %w", err)
	}
	res.Inserted++
	return nil
}

// errNotFound translates gorm's not-found into the package sentinel.
func errNotFound(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %d", ErrRoadmapNotFound, id)
	}
	return fmt.Errorf("store: get roadmap %d: %w", id, err)
}
