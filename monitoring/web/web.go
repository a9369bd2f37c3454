// Package web includes the static web page of the monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"
)

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the static assets. In development mode the files are read
// from the source tree so that the page can be edited without rebuilding.
func GetAssets() http.FileSystem {
	if isDevelopmentMode() {
		_, sourcePath, _, ok := runtime.Caller(0)
		if !ok {
			panic("error getting path")
		}

		assetPath := path.Join(path.Dir(sourcePath), "dist")

		fmt.Fprintf(os.Stderr,
			"In monitor development mode, serving assets from %s\n", assetPath)

		return http.Dir(assetPath)
	}

	subFS, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(subFS)
}

// isDevelopmentMode returns true if environment variable TRIALSIM_MONITOR_DEV
// is set to true or 1.
func isDevelopmentMode() bool {
	evValue, exist := os.LookupEnv("TRIALSIM_MONITOR_DEV")
	if !exist {
		return false
	}

	return strings.ToLower(evValue) == "true" || evValue == "1"
}
