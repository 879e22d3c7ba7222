// Package models defines domain entities and persistence interfaces for the deckhand control panel.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring backend data
//   - [Settings] : The user-editable configuration tree (connection, paths, proton, sync groups)
//   - [Game] : A library entry decorated with local install/backup state
//   - [LibrarySnapshot] : The full game library plus refresh metadata, replaced wholesale
//   - [OperationResult] : Outcome of a long-running backend operation
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedGame] : A snapshot row persisted between runs for instant startup display
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
