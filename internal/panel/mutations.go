package panel

import "github.com/dmelton/deckhand/internal/models"

// Mutation sets exactly one leaf of the settings tree. The set of
// constructors below is the entire mutation surface: every mutation is
// checked against the schema at compile time and can never touch a
// sibling leaf.
type Mutation struct {
	leaf  string
	apply func(*models.Settings)
}

// Leaf returns the dotted name of the leaf this mutation addresses.
func (m Mutation) Leaf() string { return m.leaf }

// SetRemoteHost updates connection.remoteHost.
func SetRemoteHost(value string) Mutation {
	return Mutation{leaf: "connection.remoteHost", apply: func(s *models.Settings) {
		s.Connection.RemoteHost = value
	}}
}

// SetRemoteConfigPath updates connection.remoteConfigPath.
func SetRemoteConfigPath(value string) Mutation {
	return Mutation{leaf: "connection.remoteConfigPath", apply: func(s *models.Settings) {
		s.Connection.RemoteConfigPath = value
	}}
}

// SetLocalGamesPath updates paths.localGamesPath.
func SetLocalGamesPath(value string) Mutation {
	return Mutation{leaf: "paths.localGamesPath", apply: func(s *models.Settings) {
		s.Paths.LocalGamesPath = value
	}}
}

// SetSaveBackupPath updates paths.saveBackupPath.
func SetSaveBackupPath(value string) Mutation {
	return Mutation{leaf: "paths.saveBackupPath", apply: func(s *models.Settings) {
		s.Paths.SaveBackupPath = value
	}}
}

// SetCompatdataPath updates proton.compatdataPath.
func SetCompatdataPath(value string) Mutation {
	return Mutation{leaf: "proton.compatdataPath", apply: func(s *models.Settings) {
		s.Proton.CompatdataPath = value
	}}
}

// SetDefaultProtonVersion updates proton.defaultVersion.
func SetDefaultProtonVersion(value string) Mutation {
	return Mutation{leaf: "proton.defaultVersion", apply: func(s *models.Settings) {
		s.Proton.DefaultVersion = value
	}}
}

// SetRsyncFlags updates sync.rsyncFlags.
func SetRsyncFlags(value string) Mutation {
	return Mutation{leaf: "sync.rsyncFlags", apply: func(s *models.Settings) {
		s.Sync.RsyncFlags = value
	}}
}

// Mutations returns the constructor for each leaf keyed by its dotted
// name, for surfaces that address leaves textually (CLI `settings set`).
func Mutations() map[string]func(string) Mutation {
	return map[string]func(string) Mutation{
		"connection.remoteHost":       SetRemoteHost,
		"connection.remoteConfigPath": SetRemoteConfigPath,
		"paths.localGamesPath":        SetLocalGamesPath,
		"paths.saveBackupPath":        SetSaveBackupPath,
		"proton.compatdataPath":       SetCompatdataPath,
		"proton.defaultVersion":       SetDefaultProtonVersion,
		"sync.rsyncFlags":             SetRsyncFlags,
	}
}
