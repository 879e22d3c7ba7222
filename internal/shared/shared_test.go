package shared

import (
	"path/filepath"
	"testing"
)

func TestSlugify(t *testing.T) {
	tc := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "basic name",
			value: "Hades",
			want:  "hades",
		},
		{
			name:  "spaces and punctuation",
			value: "The Witcher 3: Wild Hunt",
			want:  "the-witcher-3-wild-hunt",
		},
		{
			name:  "leading and trailing separators",
			value: "  ...Dredge...  ",
			want:  "dredge",
		},
		{
			name:  "consecutive separators collapse",
			value: "A -- B",
			want:  "a-b",
		},
		{
			name:  "no usable characters",
			value: "!!!",
			want:  "game",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.value)
			if got != tt.want {
				t.Errorf("Slugify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeRelative(t *testing.T) {
	tc := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "windows separators",
			value: `Saved Games\MyGame`,
			want:  filepath.Join("Saved Games", "MyGame"),
		},
		{
			name:  "leading slash stripped",
			value: "/drive_c/users/steamuser",
			want:  filepath.Join("drive_c", "users", "steamuser"),
		},
		{
			name:  "whitespace trimmed",
			value: "  saves/slot1  ",
			want:  filepath.Join("saves", "slot1"),
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeRelative(tt.value)
			if got != tt.want {
				t.Errorf("SanitizeRelative() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	t.Run("plain paths pass through", func(t *testing.T) {
		if got := ExpandHome("/srv/games"); got != "/srv/games" {
			t.Errorf("ExpandHome() = %v, want /srv/games", got)
		}
	})

	t.Run("tilde prefix resolves", func(t *testing.T) {
		got := ExpandHome("~/Games")
		if got == "~/Games" {
			t.Error("expected tilde to be expanded")
		}
		if filepath.Base(got) != "Games" {
			t.Errorf("expected path ending in Games, got %v", got)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Error("expected unique IDs")
	}
}
