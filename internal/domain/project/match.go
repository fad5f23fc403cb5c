package project

import (
	"net/url"
	"strings"
)

// MatchesURL reports whether pageURL belongs to the project: same hostname, and either path
// contains the other. A project URL with an empty or "/" path matches every page on its host.
func MatchesURL(p Project, pageURL string) bool {
	projectURL, err := url.Parse(p.URL)
	if err != nil {
		return false
	}
	current, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	if projectURL.Hostname() == "" || !strings.EqualFold(projectURL.Hostname(), current.Hostname()) {
		return false
	}

	projectPath := normalizePath(projectURL.Path)
	currentPath := normalizePath(current.Path)
	return strings.Contains(currentPath, projectPath) || strings.Contains(projectPath, currentPath)
}

// FindByURL returns the first project in list order that matches pageURL.
func FindByURL(projects []Project, pageURL string) (*Project, bool) {
	for i := range projects {
		if MatchesURL(projects[i], pageURL) {
			p := projects[i]
			return &p, true
		}
	}
	return nil, false
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
