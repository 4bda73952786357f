// Package icon composes step icons from the embedded glyph set: a colored
// disc, the glyph, an optional progress ring and an optional alert or star
// badge.
package icon

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/zulandar/roadmap/internal/document"
)

//go:embed icons/*.svg icons/manifest.json
var iconsFS embed.FS

//go:embed icon.svg.tmpl
var svgTemplate string

// FallbackColor replaces colors that are not valid hex.
const FallbackColor = "#c00"

// DefaultColor is used when no color is given.
const DefaultColor = "#666"

// IncompleteColor fills the disc of icons below 100%.
const IncompleteColor = "#aaa"

// RingRadius is the radius of the progress ring.
const RingRadius = 17.5

// ErrUnknownIcon is returned for names outside the embedded set.
var ErrUnknownIcon = errors.New("icon: unknown icon")

var (
	hexPattern  = regexp.MustCompile(`^#([A-Fa-f0-9]{3}){1,2}$`)
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	tmpl        = template.Must(template.New("icon").Parse(svgTemplate))
)

// VerifyHex normalizes color to a "#"-prefixed hex color, or FallbackColor.
func VerifyHex(color string) string {
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if hexPattern.MatchString(color) {
		return color
	}
	return FallbackColor
}

// Exists reports whether name is in the embedded set.
func Exists(name string) bool {
	_, err := glyph(name)
	return err == nil
}

func glyph(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", ErrUnknownIcon
	}
	data, err := iconsFS.ReadFile("icons/" + name + ".svg")
	if err != nil {
		return "", ErrUnknownIcon
	}
	return strings.TrimSpace(string(data)), nil
}

type svgData struct {
	Background string
	Glyph      string
	Color      string
	Ring       bool
	Radius     string
	DashArray  string
	DashOffset string
	Alert      bool
	Star       bool
}

// Circumference is the dash length of a full progress ring, rounded to two
// decimals.
func Circumference() float64 {
	return math.Round(2*math.Pi*RingRadius*100) / 100
}

// Compose renders the SVG for name at percent complete, clamped to 0..100
// with NaN read as 0. Flags are matched
// case-insensitively: "n" hides the ring, "a" adds the alert badge and "s"
// adds the star when there is no alert.
func Compose(name string, percent float64, color, flags string) ([]byte, error) {
	g, err := glyph(name)
	if err != nil {
		return nil, err
	}
	if color == "" {
		color = DefaultColor
	}
	color = VerifyHex(color)
	if math.IsNaN(percent) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, percent))
	flags = strings.ToLower(flags)

	d := svgData{
		Background: color,
		Glyph:      g,
		Color:      color,
		Ring:       !strings.Contains(flags, "n"),
		Radius:     formatFloat(RingRadius),
		Alert:      strings.Contains(flags, "a"),
	}
	d.Star = !d.Alert && strings.Contains(flags, "s")
	if percent < 100 {
		d.Background = IncompleteColor
	}
	dash := Circumference()
	d.DashArray = formatFloat(dash)
	d.DashOffset = formatFloat(dash * (100 - percent) / 100)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("icon: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e4)/1e4, 'f', -1, 64)
}

// URL builds the icon endpoint address. base is the server's base URL and
// may be empty for a root-relative link.
func URL(base, name string, percent int, color, flags string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("percent", strconv.Itoa(percent))
	if color != "" {
		q.Set("color", color)
	}
	if flags != "" {
		q.Set("flags", flags)
	}
	return strings.TrimRight(base, "/") + "/icon?" + q.Encode()
}

// PreviewURL is the full-color, ringless icon shown in pickers.
func PreviewURL(base, name string) string {
	return URL(base, name, 100, "", "n")
}

// Entry is one selectable icon.
type Entry struct {
	File    string `json:"file"`
	Name    string `json:"name"`
	IconURL string `json:"iconurl"`
}

// Category groups icons in the picker.
type Category struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Icons []Entry `json:"icons"`
}

// Catalog is the icon picker data.
type Catalog struct {
	Categories   []Category `json:"categories"`
	SelectedIcon Entry      `json:"selectedicon"`
}

// CurrentlyUsedID is the pseudo-category listing icons already on the
// roadmap.
const CurrentlyUsedID = -1

func loadManifest() ([]Category, error) {
	data, err := iconsFS.ReadFile("icons/manifest.json")
	if err != nil {
		return nil, fmt.Errorf("icon: read manifest: %w", err)
	}
	var cats []Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("icon: parse manifest: %w", err)
	}
	return cats, nil
}

// NewCatalog lists the embedded icons by category, preceded by a
// "Currently Used" category holding used in first-seen order. Unknown
// and duplicate names in used are skipped.
func NewCatalog(base string, used ...string) (*Catalog, error) {
	cats, err := loadManifest()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for i := range cats {
		for j := range cats[i].Icons {
			e := &cats[i].Icons[j]
			e.IconURL = PreviewURL(base, e.File)
			names[e.File] = e.Name
		}
	}

	current := Category{ID: CurrentlyUsedID, Name: "Currently Used", Icons: []Entry{}}
	seen := make(map[string]bool)
	for _, f := range used {
		if seen[f] || !Exists(f) {
			continue
		}
		seen[f] = true
		current.Icons = append(current.Icons, Entry{File: f, Name: names[f], IconURL: PreviewURL(base, f)})
	}

	sel := document.DefaultStepIcon
	return &Catalog{
		Categories:   append([]Category{current}, cats...),
		SelectedIcon: Entry{File: sel, Name: names[sel], IconURL: PreviewURL(base, sel)},
	}, nil
}

// UsedIcons returns the distinct step icons of doc in tree order.
func UsedIcons(doc *document.Document) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range doc.Phases {
		for _, c := range p.Cycles {
			for _, s := range c.Steps {
				if s.StepIcon == "" || seen[s.StepIcon] {
					continue
				}
				seen[s.StepIcon] = true
				out = append(out, s.StepIcon)
			}
		}
	}
	return out
}

// Decorate sets each step's preview icon URL for the editor.
func Decorate(doc *document.Document, base string) {
	for pi := range doc.Phases {
		for ci := range doc.Phases[pi].Cycles {
			steps := doc.Phases[pi].Cycles[ci].Steps
			for si := range steps {
				if steps[si].StepIcon != "" {
					steps[si].IconURL = PreviewURL(base, steps[si].StepIcon)
				}
			}
		}
	}
}
