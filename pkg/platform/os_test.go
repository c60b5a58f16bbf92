// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigBase(t *testing.T) {
	t.Parallel()

	noHome := func() (string, error) { return "", errors.New("no home") }
	home := func() (string, error) { return "/home/dev", nil }
	vars := func(kv map[string]string) func(string) string {
		return func(k string) string { return kv[k] }
	}

	tests := []struct {
		name    string
		goos    string
		env     Env
		want    string
		wantErr bool
	}{
		{"windows appdata", Windows, Env{vars(map[string]string{"APPDATA": `C:\Users\dev\AppData\Roaming`}), noHome}, `C:\Users\dev\AppData\Roaming`, false},
		{"windows profile", Windows, Env{vars(map[string]string{"USERPROFILE": "profile"}), noHome}, filepath.Join("profile", "AppData", "Roaming"), false},
		{"windows unset", Windows, Env{vars(nil), home}, "", true},
		{"darwin", Darwin, Env{vars(nil), home}, filepath.Join("/home/dev", "Library", "Application Support"), false},
		{"linux xdg", Linux, Env{vars(map[string]string{"XDG_CONFIG_HOME": "/xdg"}), noHome}, "/xdg", false},
		{"linux home", Linux, Env{vars(nil), home}, filepath.Join("/home/dev", ".config"), false},
		{"linux no home", Linux, Env{vars(nil), noHome}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ConfigBase(tt.goos, tt.env)
			if tt.wantErr {
				if !errors.Is(err, ErrNoConfigBase) {
					t.Fatalf("ConfigBase() error = %v, want ErrNoConfigBase", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfigBase() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ConfigBase() = %q, want %q", got, tt.want)
			}
		})
	}
}
