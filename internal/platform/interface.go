// Package platform reports the foreground application on desktop hosts.
package platform

import (
	"path/filepath"
	"strings"
)

// ForegroundAPI reports the application currently in the foreground
type ForegroundAPI interface {
	// Supported reports whether this host can sample the foreground window at all
	Supported() bool
	CurrentApp() (*AppInfo, bool)
}

// AppInfo contains information about an application
type AppInfo struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	ExePath string `json:"exePath"`
}

// AppInfoFromPath derives display name and package id from an executable path
func AppInfoFromPath(exePath string) *AppInfo {
	if exePath == "" {
		return nil
	}
	base := filepath.Base(strings.ReplaceAll(exePath, `\`, "/"))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == "/" {
		return nil
	}
	return &AppInfo{
		Name:    name,
		Package: "desktop." + strings.ToLower(name),
		ExePath: exePath,
	}
}
