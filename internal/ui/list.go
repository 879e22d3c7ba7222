package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dmelton/deckhand/internal/formatter"
	"github.com/dmelton/deckhand/internal/models"
)

var (
	_ list.Item = gameItem{}
	_ list.Item = settingItem{}
)

// gameItem wraps [models.Game] to implement [list.Item].
type gameItem struct {
	game models.Game
}

func (i gameItem) FilterValue() string { return i.game.Name }
func (i gameItem) Title() string       { return i.game.Name }
func (i gameItem) Description() string {
	desc := formatter.StatusString(i.game)
	if i.game.ProtonVersion != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.game.ProtonVersion)
	}
	return desc
}

// settingItem is one leaf of the settings tree for the settings list.
type settingItem struct {
	leaf  string
	value string
}

func (i settingItem) FilterValue() string { return i.leaf }
func (i settingItem) Title() string       { return i.leaf }
func (i settingItem) Description() string {
	if i.value == "" {
		return "(unset)"
	}
	return i.value
}
