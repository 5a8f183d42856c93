package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"camera-filter-preview/internal/filters"
	"camera-filter-preview/internal/preview"
	"camera-filter-preview/internal/viewport"
)

// ControlPanel holds the policy, filter and orientation selectors
type ControlPanel struct {
	container *fyne.Container

	policySelect  *widget.Select
	filterSelect  *widget.Select
	orientation   *widget.RadioGroup
	thumbnails    *widget.Check
	viewportLabel *widget.Label
	statsLabel    *widget.Label

	onPolicyChanged      func(viewport.FitPolicy)
	onFilterChanged      func(filters.ID)
	onOrientationChanged func(viewport.Orientation)
	onThumbnailsToggled  func(bool)
}

func NewControlPanel() *ControlPanel {
	cp := &ControlPanel{}
	cp.initializeUI()
	return cp
}

func (cp *ControlPanel) initializeUI() {
	var policyNames []string
	for _, p := range viewport.Policies() {
		policyNames = append(policyNames, p.String())
	}
	cp.policySelect = widget.NewSelect(policyNames, func(name string) {
		policy, err := viewport.ParseFitPolicy(name)
		if err == nil && cp.onPolicyChanged != nil {
			cp.onPolicyChanged(policy)
		}
	})

	var filterNames []string
	for _, v := range filters.Ordered() {
		filterNames = append(filterNames, v.Name)
	}
	cp.filterSelect = widget.NewSelect(filterNames, func(name string) {
		id, err := filters.ParseID(name)
		if err == nil && cp.onFilterChanged != nil {
			cp.onFilterChanged(id)
		}
	})

	cp.orientation = widget.NewRadioGroup(
		[]string{viewport.Landscape.String(), viewport.Portrait.String()},
		func(name string) {
			o, err := viewport.ParseOrientation(name)
			if err == nil && cp.onOrientationChanged != nil {
				cp.onOrientationChanged(o)
			}
		})
	cp.orientation.Horizontal = true
	cp.orientation.Required = true

	cp.thumbnails = widget.NewCheck("Filter thumbnails", func(enabled bool) {
		if cp.onThumbnailsToggled != nil {
			cp.onThumbnailsToggled(enabled)
		}
	})

	cp.viewportLabel = widget.NewLabel("Viewport: waiting for surface")
	cp.statsLabel = widget.NewLabel("")

	cp.container = container.NewVBox(
		widget.NewCard("Fit", "", container.NewVBox(
			widget.NewLabel("Policy"),
			cp.policySelect,
			widget.NewLabel("Orientation"),
			cp.orientation,
		)),
		widget.NewCard("Filter", "", container.NewVBox(
			cp.filterSelect,
			cp.thumbnails,
		)),
		widget.NewCard("Status", "", container.NewVBox(
			cp.viewportLabel,
			cp.statsLabel,
		)),
	)
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

// SetInitial selects the starting values without firing callbacks
func (cp *ControlPanel) SetInitial(opts preview.Options) {
	cp.policySelect.Selected = opts.Policy.String()
	cp.filterSelect.Selected = opts.Filter.String()
	cp.orientation.Selected = opts.Orientation.String()
	cp.thumbnails.Checked = opts.Thumbnails.Enabled
	cp.container.Refresh()
}

// ShowFilter reflects a filter picked outside the panel
func (cp *ControlPanel) ShowFilter(id filters.ID) {
	if cp.filterSelect.Selected == id.String() {
		return
	}
	cp.filterSelect.Selected = id.String()
	cp.filterSelect.Refresh()
}

// Update shows the latest presenter state
func (cp *ControlPanel) Update(snap preview.Snapshot, stats preview.Stats) {
	if snap.Valid {
		vp := snap.Result.Viewport
		fill := snap.Fill
		cp.viewportLabel.SetText(fmt.Sprintf("Viewport: (%d, %d) %dx%d\nScale: %.3f x %.3f\nFill: (%d, %d) %dx%d",
			vp.X, vp.Y, vp.Width, vp.Height, snap.Result.ScaleX, snap.Result.ScaleY,
			fill.X, fill.Y, fill.Width, fill.Height))
	} else {
		cp.viewportLabel.SetText("Viewport: waiting for surface")
	}
	cp.statsLabel.SetText(fmt.Sprintf("Frames: %d drawn, %d skipped\nUpdates: %d",
		stats.FramesDrawn, stats.FramesSkipped, stats.UpdatesApplied))
}

func (cp *ControlPanel) SetCallbacks(
	onPolicyChanged func(viewport.FitPolicy),
	onFilterChanged func(filters.ID),
	onOrientationChanged func(viewport.Orientation),
	onThumbnailsToggled func(bool),
) {
	cp.onPolicyChanged = onPolicyChanged
	cp.onFilterChanged = onFilterChanged
	cp.onOrientationChanged = onOrientationChanged
	cp.onThumbnailsToggled = onThumbnailsToggled
}
