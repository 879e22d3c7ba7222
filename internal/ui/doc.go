// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for the game library control panel:
//  1. [LibraryView] : Browse the library snapshot and start operations
//  2. [SettingsView] : Inspect and edit the settings draft
//  3. [EditView] : Edit a single settings leaf
//  4. [ConfirmRemoveView] : Confirm a destructive removal
//  5. [OperationView] : Wait for an in-flight operation
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Operations run in tea.Cmd goroutines against the panel; the panel's dispatcher
// rejects re-entrant dispatches, so a key mashed while an operation runs is
// answered with a status line rather than a duplicate call.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
