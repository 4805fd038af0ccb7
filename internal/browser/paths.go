package browser

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Family identifies which browser lineage an executable belongs to.
type Family string

const (
	FamilyChrome Family = "chrome"
	FamilyEdge   Family = "edge"
)

// Host abstracts the platform facts path resolution depends on, so tests can
// pin them. The default host reads the real process environment.
type Host interface {
	OS() string
	HomeDir() string
	LookupEnv(key string) (string, bool)
}

type osHost struct{}

func (osHost) OS() string { return runtime.GOOS }

func (osHost) HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func (osHost) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// Resolver finds browser executables and user-data directories for the
// current platform. Exists may be overridden in tests; by default it is a
// plain stat check.
type Resolver struct {
	host   Host
	Exists func(path string) bool
}

func NewResolver(host Host) *Resolver {
	if host == nil {
		host = osHost{}
	}
	return &Resolver{
		host: host,
		Exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
}

// Candidates returns the ordered executable candidate list for the host
// platform: Chrome variants first, Edge as the fallback.
func (r *Resolver) Candidates() []string {
	home := r.homeDir()
	switch r.host.OS() {
	case "windows":
		local := r.envOr("LOCALAPPDATA", filepath.Join(home, "AppData", "Local"))
		return []string{
			filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe"),
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			filepath.Join(home, "Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"),
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
	default:
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium-browser",
			"/usr/bin/chromium",
			"/usr/bin/microsoft-edge",
		}
	}
}

// FindExecutable walks the candidate list in order and returns the first
// path that exists on disk. The boolean is false when no candidate exists;
// callers must treat that as a hard dependency-missing condition.
func (r *Resolver) FindExecutable() (string, bool) {
	for _, c := range r.Candidates() {
		if r.Exists(c) {
			return c, true
		}
	}
	return "", false
}

// UserDataDir resolves the profile directory for a browser family. It is a
// pure function over platform, home directory and environment overrides and
// performs no filesystem access; existence is the provisioner's concern.
// Unrecognized families resolve to the Chrome location.
func (r *Resolver) UserDataDir(family Family) string {
	home := r.homeDir()
	edge := family == FamilyEdge
	switch r.host.OS() {
	case "windows":
		local := r.envOr("LOCALAPPDATA", filepath.Join(home, "AppData", "Local"))
		if edge {
			return filepath.Join(local, "Microsoft", "Edge", "User Data")
		}
		return filepath.Join(local, "Google", "Chrome", "User Data")
	case "darwin":
		if edge {
			return filepath.Join(home, "Library", "Application Support", "Microsoft Edge")
		}
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	default:
		if edge {
			return filepath.Join(home, ".config", "microsoft-edge")
		}
		return filepath.Join(home, ".config", "google-chrome")
	}
}

// DetectFamily classifies an executable path by a case-insensitive substring
// match. Best-effort: anything without an Edge marker counts as Chrome.
func DetectFamily(executablePath string) Family {
	if strings.Contains(strings.ToLower(executablePath), "edge") {
		return FamilyEdge
	}
	return FamilyChrome
}

func (r *Resolver) homeDir() string {
	if v, ok := r.host.LookupEnv("HOME"); ok && v != "" {
		return v
	}
	if r.host.OS() == "windows" {
		if v, ok := r.host.LookupEnv("USERPROFILE"); ok && v != "" {
			return v
		}
	}
	return r.host.HomeDir()
}

func (r *Resolver) envOr(key, def string) string {
	if v, ok := r.host.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
