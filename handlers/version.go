package handlers

import (
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
)

// BuildVersion is set at build time with -ldflags "-X geekhub/handlers.BuildVersion=...".
var BuildVersion string

var (
	version     string
	versionOnce sync.Once
)

type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// GetBackendVersion resolves the version once: ldflags, then version.txt,
// then the module build info.
func GetBackendVersion() string {
	versionOnce.Do(func() {
		if BuildVersion != "" {
			version = BuildVersion
			return
		}

		for _, path := range []string{"version.txt", "/app/version.txt"} {
			data, err := os.ReadFile(path)
			if err == nil {
				version = strings.TrimSpace(string(data))
				return
			}
		}

		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
			return
		}
		version = "unknown"
	})
	return version
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: GetBackendVersion()})
}
