package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

var _ list.Item = trackItem{}

// trackItem wraps [services.Track] to implement [list.Item].
type trackItem struct {
	track services.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.ArtistName, shared.FormatDuration(i.track.Duration))
	if i.track.PlayCount > 0 {
		desc = fmt.Sprintf("%s • %s plays", desc, shared.FormatCount(i.track.PlayCount))
	}
	return desc
}
