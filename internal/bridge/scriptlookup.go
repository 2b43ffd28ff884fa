package bridge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ScriptLookup adapts an external lookup command to the AlbumLookup
// contract. The command receives the artist and album as arguments and
// prints "<year>" or "<year> definitive" on success, nothing on a miss. The
// multi-provider scoring lives entirely in that command.
type ScriptLookup struct {
	Command string
	Args    []string
}

// LookupAlbumYear implements AlbumLookup.
func (l *ScriptLookup) LookupAlbumYear(ctx context.Context, artist, album string) (Lookup, error) {
	if l == nil || l.Command == "" {
		return Lookup{}, nil
	}
	args := append(append([]string{}, l.Args...), artist, album)
	output, err := exec.CommandContext(ctx, l.Command, args...).Output()
	if err != nil {
		return Lookup{}, fmt.Errorf("lookup command: %w", err)
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return Lookup{}, nil
	}
	return Lookup{
		Year:       fields[0],
		Definitive: len(fields) > 1 && fields[1] == "definitive",
	}, nil
}
