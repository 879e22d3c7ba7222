package ui

import (
	"github.com/dmelton/deckhand/internal/models"
	"github.com/dmelton/deckhand/internal/panel"
)

// initDoneMsg reports the result of the panel's startup sequence.
type initDoneMsg struct {
	err error
}

// refreshDoneMsg reports the result of a library refresh.
type refreshDoneMsg struct {
	err error
}

// operationDoneMsg reports the outcome of one dispatched operation.
type operationDoneMsg struct {
	key    panel.OpKey
	result *models.OperationResult
	err    error
}

// commitDoneMsg reports the outcome of a settings commit.
type commitDoneMsg struct {
	err error
}
