package proton

import (
	"path/filepath"
	"strings"

	"github.com/dmelton/deckhand/internal/shared"
)

// ResolvePrefixPath maps a game-defined save path onto the local
// filesystem. Absolute paths pass through (with ~ expansion); relative
// paths are resolved inside the prefix's drive_c after substituting the
// Windows environment tokens games commonly use.
func ResolvePrefixPath(prefix, relative string) string {
	if filepath.IsAbs(relative) {
		return shared.ExpandHome(relative)
	}

	cleaned := strings.ReplaceAll(relative, "\\", "/")
	driveC := filepath.Join(prefix, "pfx", "drive_c")
	userProfile := filepath.Join(driveC, "users", "steamuser")

	replacements := map[string]string{
		"%USERPROFILE%":  userProfile,
		"%APPDATA%":      filepath.Join(userProfile, "AppData", "Roaming"),
		"%LOCALAPPDATA%": filepath.Join(userProfile, "AppData", "Local"),
		"%DOCUMENTS%":    filepath.Join(userProfile, "Documents"),
		"%DRIVE_C%":      driveC,
	}
	for token, resolved := range replacements {
		cleaned = strings.ReplaceAll(cleaned, token, resolved)
	}

	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(driveC, cleaned)
	}
	return filepath.Clean(cleaned)
}
