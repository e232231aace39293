package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/model-orchestrator/internal/cli"
)

var AppVersion = "v0.1.0"

const releaseEndpoint = "https://api.github.com/repos/nulzo/model-orchestrator/releases/latest"

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// CheckForUpdates compares the running version against the latest published
// release and prints a notice when a newer one exists. Best effort: network
// or parse failures never surface.
func CheckForUpdates() {
	client := http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(releaseEndpoint)
	if err != nil {
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return
	}

	current, err := version.NewVersion(AppVersion)
	if err != nil {
		return
	}
	latest, err := version.NewVersion(release.TagName)
	if err != nil {
		return
	}

	if current.LessThan(latest) {
		fmt.Printf("%s %s\n", cli.Arrow(),
			cli.Style(fmt.Sprintf("update available: %s -> %s", AppVersion, release.TagName), cli.Yellow))
	}
}
