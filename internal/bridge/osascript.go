package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// OSAScriptUpdater drives the host music application through the system
// scripting bridge. Each update is one osascript invocation; the script
// prints "true" when the year was written.
type OSAScriptUpdater struct {
	// Binary defaults to "osascript"; overridable for tests.
	Binary string
}

// NewOSAScriptUpdater returns an updater using the system osascript binary.
func NewOSAScriptUpdater() *OSAScriptUpdater {
	return &OSAScriptUpdater{Binary: "osascript"}
}

const updateYearScript = `
on run argv
    set trackID to item 1 of argv
    set newYear to item 2 of argv
    tell application "Music"
        try
            set theTrack to (first track whose persistent ID is trackID)
            set year of theTrack to (newYear as integer)
            return "true"
        on error
            return "false"
        end try
    end tell
end run`

// UpdateTrackYear implements TrackUpdater.
func (u *OSAScriptUpdater) UpdateTrackYear(ctx context.Context, trackID, year string) (bool, error) {
	binary := u.Binary
	if binary == "" {
		binary = "osascript"
	}
	cmd := exec.CommandContext(ctx, binary, "-e", updateYearScript, trackID, year)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("osascript update track %s: %w", trackID, err)
	}
	return strings.TrimSpace(string(output)) == "true", nil
}
