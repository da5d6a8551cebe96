package node

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// DefaultDataDir is the default data directory to use for the chain
// database and other persistence requirements.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := homeDir()
	if home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Tenebra")
		case "windows":
			// We used to put everything in %HOME%\AppData\Roaming,
			// but this caused friction with the standard directory
			// layout, so use %LOCALAPPDATA% when available.
			if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
				return filepath.Join(appdata, "Tenebra")
			}
			return filepath.Join(home, "AppData", "Local", "Tenebra")
		default:
			return filepath.Join(home, ".tenebra")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
