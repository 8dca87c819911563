package aci

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionResponse is the response data of GetVersion
type VersionResponse struct {
	Version        string `xml:"version"`
	Build          string `xml:"build"`
	ProductName    string `xml:"productname"`
	ProductTypeCSV string `xml:"producttypecsv"`
}

// ProductTypes splits the comma separated product types reported by the
// server. Some product names are shared between components, so the type is
// what identifies a component.
func (r VersionResponse) ProductTypes() []string {
	var types []string
	for _, t := range strings.Split(r.ProductTypeCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// SemVer parses the reported version. Servers report versions such as
// "12.13.0" or "23.4.0 (build 1234)"
func (r VersionResponse) SemVer() (*semver.Version, error) {
	fields := strings.Fields(r.Version)
	if len(fields) == 0 {
		return semver.NewVersion(r.Version)
	}
	return semver.NewVersion(fields[0])
}

// ChildrenResponse is the response data of GetChildren
type ChildrenResponse struct {
	Port        int `xml:"port"`
	ServicePort int `xml:"serviceport"`
}

// StatusResponse is the response data of GetStatus. Unlike GetChildren it also
// reports the index port of servers that have one
type StatusResponse struct {
	ACIPort     int `xml:"aciport"`
	IndexPort   int `xml:"indexport"`
	ServicePort int `xml:"serviceport"`
}
