// Package panel holds the control-panel core: the state stores and the
// dispatch protocol every surface (CLI, TUI, daemon) drives.
//
// Three cooperating pieces:
//
//   - [SettingsStore] : persisted settings, an editable draft and a dirty
//     flag. Edits apply typed [Mutation] values to the draft; Commit sends
//     the draft to the backend and adopts whatever the backend stored.
//   - [LibraryCache] : the last known [models.LibrarySnapshot], replaced
//     wholesale on every refresh. A failed refresh keeps the previous
//     snapshot and raises a banner error instead.
//   - [Dispatcher] : runs one long-running backend operation per
//     [OpKey] at a time. Dispatch claims the key atomically, invokes the
//     backend, notifies the outcome, releases the key and refreshes the
//     library - in that order, unconditionally.
//
// [Panel] ties the three together and derives the busy state surfaces
// use to gate their controls.
package panel
