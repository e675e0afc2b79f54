package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Repo is the GitHub repository releases are fetched from.
const Repo = "Fepozopo/timpcore"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// Updater checks GitHub releases and replaces the running binary.
type Updater struct {
	Repo    string
	APIBase string // defaults to https://api.github.com
	Client  *http.Client
	Current string
	Out     io.Writer
}

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Latest returns the highest published, non-prerelease release whose tag or
// name carries a semantic version. It returns (nil, false, nil) when none
// qualifies.
func (u *Updater) Latest(ctx context.Context) (*selfupdate.Release, bool, error) {
	base := u.APIBase
	if base == "" {
		base = "https://api.github.com"
	}
	client := u.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/repos/%s/releases", base, u.Repo), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	var candidates []*selfupdate.Release
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
		}
		if match == "" {
			continue
		}
		v, err := semver.Parse(strings.TrimPrefix(match, "v"))
		if err != nil {
			continue
		}
		candidates = append(candidates, &selfupdate.Release{
			Version:  v,
			AssetURL: pickAsset(r),
			Name:     r.Name,
		})
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version.GT(candidates[j].Version)
	})
	return candidates[0], true, nil
}

// pickAsset prefers an asset whose name looks like a platform binary and
// falls back to the first one.
func pickAsset(r githubRelease) string {
	for _, a := range r.Assets {
		n := strings.ToLower(a.Name)
		for _, hint := range []string{"darwin", "linux", "windows", "amd64", "arm64"} {
			if strings.Contains(n, hint) {
				return a.BrowserDownloadURL
			}
		}
	}
	if len(r.Assets) > 0 {
		return r.Assets[0].BrowserDownloadURL
	}
	return ""
}

// Check reports the latest release and, when apply is set and a newer
// version has a downloadable asset, replaces the running executable.
func (u *Updater) Check(ctx context.Context, apply bool) error {
	fmt.Fprintf(u.Out, "Current version: %s\n", u.Current)
	latest, found, err := u.Latest(ctx)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found {
		fmt.Fprintf(u.Out, "No releases found for %s.\n", u.Repo)
		return nil
	}
	fmt.Fprintf(u.Out, "Latest version: %s\n", latest.Version)

	current, err := semver.Parse(strings.TrimPrefix(u.Current, "v"))
	if err != nil {
		fmt.Fprintf(u.Out, "warning: could not parse current version %q: %v\n", u.Current, err)
	} else if latest.Version.LTE(current) {
		fmt.Fprintf(u.Out, "You are already running the latest version: %s.\n", current)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(u.Out, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		return nil
	}
	if !apply {
		fmt.Fprintf(u.Out, "A new version (%s) is available. Run with --apply to update.\n", latest.Version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(u.Out, "Updated to version %s.\n", latest.Version)
	return nil
}
