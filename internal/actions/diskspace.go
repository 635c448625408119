package actions

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// preflight fails a group early when the destination volume clearly
// cannot hold it. Remote destinations and unreadable volumes are let
// through so rsync can report its own errors.
func (t *RsyncTransfer) preflight(g TransferGroup, size int64) error {
	if size <= 0 || isRemoteDest(g.Dest) {
		return nil
	}
	free, err := freeSpace(destVolume(g.Dest))
	if err != nil {
		return nil
	}
	if size > free {
		return fmt.Errorf("not enough space on %s: need %s, have %s",
			g.Dest, humanize.Bytes(uint64(size)), humanize.Bytes(uint64(free)))
	}
	return nil
}

// groupSize sums the sizes of the group's sources, walking directories.
// Missing sources count as zero; rsync reports those itself.
func groupSize(g TransferGroup) int64 {
	var total int64
	for _, src := range g.Sources {
		info, err := os.Stat(src)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		filepath.WalkDir(src, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil && fi.Mode().IsRegular() {
				total += fi.Size()
			}
			return nil
		})
	}
	return total
}

// isRemoteDest reports whether a destination uses rsync's remote
// syntax, either host:path or an rsync:// URL.
func isRemoteDest(dest string) bool {
	if strings.HasPrefix(dest, "rsync://") {
		return true
	}
	head, _, found := strings.Cut(dest, "/")
	if !found {
		head = dest
	}
	return strings.Contains(head, ":")
}

// destVolume returns the nearest existing ancestor of the destination,
// suitable for a filesystem stat. The destination itself often does
// not exist yet.
func destVolume(dest string) string {
	path := dest
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
