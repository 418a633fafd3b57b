package index

import "context"

// File is one distribution file published for a release.
type File struct {
	Filename       string
	URL            string
	RequiresPython string
	SHA256         string
	Yanked         bool
}

// Project holds the full release listing of a project as published by a
// registry index.
//
// Names are normalized following PEP 503. Releases maps version strings
// to the files published for that version; a release with no files was
// fully yanked or never uploaded and yields no candidates.
type Project struct {
	Name           string
	LatestVersion  string
	RequiresPython string
	Summary        string
	Releases       map[string][]File
}

// Fetcher retrieves project release listings from a registry index.
type Fetcher interface {
	FetchProject(ctx context.Context, name string) (*Project, error)
}
