package schema

import "time"

// SystemInfo is one row of the systems listing.
type SystemInfo struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Releases int    `json:"releases"` // releases named by the history
	Stored   int    `json:"stored"`   // releases present in the store
}

// ClassListing is the classes report of one release.
type ClassListing struct {
	System       string         `json:"system"`
	RSN          int            `json:"rsn"`
	ReleaseID    string         `json:"release_id"`
	LastModified time.Time      `json:"last_modified"`
	Total        int            `json:"total"` // classes in the release before the limit
	SortedBy     Metric         `json:"sorted_by"`
	Classes      []*ClassRecord `json:"classes"`
}
