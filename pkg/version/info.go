// Package version reports the build metadata injected by the linker.
package version

import (
	"strings"
)

const (
	// Unknown is used when build metadata is not provided.
	Unknown = "unknown"
	// DevelopmentVersion is the default version in local builds.
	DevelopmentVersion = "dev"
	// Product names the loader in User-Agent headers.
	Product = "i18nloader"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/nimburion/i18nloader/pkg/version.AppVersion=v1.2.3 \
//	  -X github.com/nimburion/i18nloader/pkg/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	AppVersion = DevelopmentVersion
	GitCommit  = Unknown
	BuildTime  = Unknown
)

// Info is the payload of the catalog server's /version endpoint.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Current returns the build metadata of the running binary.
func Current(serviceName string) Info {
	return Info{
		Service:   orDefault(serviceName, Unknown),
		Version:   orDefault(AppVersion, DevelopmentVersion),
		Commit:    orDefault(GitCommit, Unknown),
		BuildTime: orDefault(BuildTime, Unknown),
	}
}

// UserAgent identifies catalog fetches, e.g. "i18nloader/v1.2.3 (3f2c1ab)".
func UserAgent() string {
	info := Current(Product)
	if info.Commit == Unknown {
		return Product + "/" + info.Version
	}
	return Product + "/" + info.Version + " (" + info.Commit + ")"
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
