package config

import "strings"

// LoginURL returns https://login.{region}, or the configured override. It
// hosts the OAuth authorize and token endpoints.
func (g *GenesysConfig) LoginURL() string {
	if g.LoginBaseURL != "" {
		return strings.TrimRight(g.LoginBaseURL, "/")
	}
	return "https://login." + g.Region
}

// APIURL returns https://api.{region}, or the configured override. It hosts
// the platform REST API.
func (g *GenesysConfig) APIURL() string {
	if g.APIBaseURL != "" {
		return strings.TrimRight(g.APIBaseURL, "/")
	}
	return "https://api." + g.Region
}
