package models

// Settings is the user-editable configuration tree synchronized with the
// backend. Groups and leaves are fixed at compile time; a draft copy is
// always shape-isomorphic to the persisted value because the tree is a
// plain value type with no pointers or maps.
type Settings struct {
	Connection ConnectionSettings `json:"connection" toml:"connection"`
	Paths      PathSettings       `json:"paths" toml:"paths"`
	Proton     ProtonSettings     `json:"proton" toml:"proton"`
	Sync       SyncSettings       `json:"sync" toml:"sync"`
}

// ConnectionSettings locates the remote library host.
type ConnectionSettings struct {
	RemoteHost       string `json:"remoteHost" toml:"remote_host"`
	RemoteConfigPath string `json:"remoteConfigPath" toml:"remote_config_path"`
}

// PathSettings holds local filesystem roots.
type PathSettings struct {
	LocalGamesPath string `json:"localGamesPath" toml:"local_games_path"`
	SaveBackupPath string `json:"saveBackupPath" toml:"save_backup_path"`
}

// ProtonSettings holds the compatibility layer configuration.
type ProtonSettings struct {
	CompatdataPath string `json:"compatdataPath" toml:"compatdata_path"`
	DefaultVersion string `json:"defaultVersion" toml:"default_version"`
}

// SyncSettings holds transfer tuning.
type SyncSettings struct {
	RsyncFlags string `json:"rsyncFlags" toml:"rsync_flags"`
}

// Clone returns an independent copy of the settings tree.
//
// Settings is a pure value type, so assignment already copies every
// leaf; Clone exists to make draft creation explicit at call sites.
func (s Settings) Clone() Settings {
	return s
}

// Equal reports whether every leaf matches v.
func (s Settings) Equal(v Settings) bool {
	return s == v
}

// RemoteConfigured reports whether both connection leaves are set,
// which gates every operation that touches the remote host.
func (s Settings) RemoteConfigured() bool {
	return s.Connection.RemoteHost != "" && s.Connection.RemoteConfigPath != ""
}
