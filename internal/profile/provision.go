package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loykin/deskshell/internal/browser"
)

// Output subdirectories created under the base output location at startup.
var OutputSubdirs = []string{"recordings", "traces", "history"}

// Preferences is the document seeded into a fresh profile's Default/
// directory. It disables first-run UI, notifications, session restore and
// bookmark/history import so the managed browser comes up quiet.
type Preferences struct {
	Browser struct {
		CustomChromeFrame   bool `json:"custom_chrome_frame"`
		CheckDefaultBrowser bool `json:"check_default_browser"`
	} `json:"browser"`
	Profile struct {
		DefaultContentSettingValues struct {
			Notifications int `json:"notifications"`
		} `json:"default_content_setting_values"`
	} `json:"profile"`
	Session struct {
		RestoreOnStartup int `json:"restore_on_startup"`
	} `json:"session"`
	BookmarkBar struct {
		ShowOnAllTabs bool `json:"show_on_all_tabs"`
	} `json:"bookmark_bar"`
	Distribution struct {
		ImportBookmarks    bool `json:"import_bookmarks"`
		ImportHistory      bool `json:"import_history"`
		ImportSearchEngine bool `json:"import_search_engine"`
		MakeChromeDefault  bool `json:"make_chrome_default"`
		ShowWelcomePage    bool `json:"show_welcome_page"`
		SkipFirstRunUI     bool `json:"skip_first_run_ui"`
	} `json:"distribution"`
}

func defaultPreferences() Preferences {
	var p Preferences
	p.Profile.DefaultContentSettingValues.Notifications = 2
	p.Session.RestoreOnStartup = 5
	p.Distribution.SkipFirstRunUI = true
	return p
}

// EnsureOutputDirs creates the fixed output subdirectories under base.
// Idempotent; parents are created as needed.
func EnsureOutputDirs(base string) error {
	for _, sub := range OutputSubdirs {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o750); err != nil {
			return fmt.Errorf("create output dir %s: %w", sub, err)
		}
	}
	return nil
}

// EnsureUserDataDir makes sure dir is usable as a browser profile directory.
// A fresh directory gets a first-run marker, a Default/ profile subdirectory
// and the seeded Preferences file; an existing directory is returned
// untouched so profile state survives restarts. When the directory cannot be
// created the provisioner degrades to a family-scoped location under the
// system temp dir rather than failing.
func EnsureUserDataDir(family browser.Family, dir string) string {
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	if err := seed(dir); err != nil {
		fallback := filepath.Join(os.TempDir(), fmt.Sprintf("deskshell-%s-profile", family))
		slog.Warn("user data dir unavailable, using temp fallback",
			"dir", dir, "fallback", fallback, "error", err)
		if _, statErr := os.Stat(fallback); statErr != nil {
			_ = seed(fallback)
		}
		return fallback
	}
	return dir
}

func seed(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "First Run"), nil, 0o600); err != nil {
		return err
	}
	profileDir := filepath.Join(dir, "Default")
	if err := os.MkdirAll(profileDir, 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(defaultPreferences(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(profileDir, "Preferences"), data, 0o600)
}
