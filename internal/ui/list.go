package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

var _ list.Item = songItem{}

// songItem wraps [models.SongSummary] to implement [list.Item].
type songItem struct {
	song models.SongSummary
}

func (i songItem) FilterValue() string { return i.song.Name + " " + i.song.Artists }
func (i songItem) Title() string       { return i.song.Name }
func (i songItem) Description() string {
	parts := []string{i.song.Artists}
	if i.song.Duration > 0 {
		parts = append(parts, shared.FormatDuration(i.song.Duration))
	}
	parts = append(parts, fmt.Sprintf("id %s", i.song.ID))
	return strings.Join(parts, " • ")
}

func songItems(songs []models.SongSummary) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}
