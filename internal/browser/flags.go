package browser

import (
	"fmt"
	"path/filepath"
)

// LaunchArgs builds the fixed launch flag set for the managed browser:
// remote debugging on debugPort, window pinned to the right half of the
// primary display, dedicated user-data dir with the default profile, and all
// first-run/default-browser/translate/extension prompts disabled. On the
// Linux platform family sandboxing and GPU acceleration are disabled as well.
// startURL, when non-empty, is appended as the initial navigation target.
func LaunchArgs(goos string, debugPort int, userDataDir, startURL string) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", debugPort),
		"--window-position=960,0",
		"--window-size=960,1080",
		"--force-dark-mode",
		"--disable-web-security",
		"--user-data-dir=" + filepath.Clean(userDataDir),
		"--profile-directory=Default",
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-features=Translate",
		"--disable-extensions",
	}
	if goos == "linux" {
		args = append(args, "--no-sandbox", "--disable-gpu")
	}
	if startURL != "" {
		args = append(args, startURL)
	}
	return args
}
