package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/fileutil"
)

// starterCategories are the file groups the generated rules sort, in the
// order they appear in the file. Patterns are any-match globs; the
// destination is a subdirectory of the chosen base.
var starterCategories = []struct {
	name     string
	subdir   string
	patterns []string
}{
	{"videos", "Videos", []string{"*.mkv", "*.mp4", "*.avi", "*.webm", "*.mov"}},
	{"music", "Music", []string{"*.mp3", "*.flac", "*.ogg", "*.m4a", "*.wav"}},
	{"pictures", "Pictures", []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp", "*.svg"}},
	{"documents", "Documents", []string{"*.pdf", "*.epub", "*.djvu", "*.doc", "*.docx", "*.odt", "*.txt"}},
	{"archives", "Archives", []string{"*.zip", "*.tar", "*.gz", "*.bz2", "*.xz", "*.7z", "*.rar", "*.iso"}},
}

// quoteRules wraps a value in a rules-file string literal. The only
// characters that need escaping are the quote and the brace that would
// open an interpolation span.
func quoteRules(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "{", `\{`)
	return `"` + s + `"`
}

// StarterRules renders the starter rules file. Files are matched by
// extension and moved into category subdirectories of dest; downloads
// only appears in the usage hints at the top.
func StarterRules(downloads, dest string) string {
	var b strings.Builder

	b.WriteString("# plumb rules. Each file plumb is given walks these rules top to\n")
	b.WriteString("# bottom; the first matching rule moves it and stops.\n")
	b.WriteString("#\n")
	b.WriteString("# Check after editing:   plumb check\n")
	b.WriteString("# Try without touching:  plumb route --dry-run FILE...\n")
	if downloads != "" {
		fmt.Fprintf(&b, "# Sort as they arrive:   plumb watch %s\n", downloads)
	}
	b.WriteString("\n")

	b.WriteString("rule vars\n")
	fmt.Fprintf(&b, "\tdest = %s\n", quoteRules(dest))

	for _, cat := range starterCategories {
		b.WriteString("\n")
		fmt.Fprintf(&b, "rule %s\n", cat.name)
		b.WriteString("\tis file\n")
		quoted := make([]string, len(cat.patterns))
		for i, p := range cat.patterns {
			quoted[i] = quoteRules(p)
		}
		fmt.Fprintf(&b, "\tglob %s\n", strings.Join(quoted, " "))
		fmt.Fprintf(&b, "\tmoveto \"{$dest}/%s\"\n", cat.subdir)
		b.WriteString("\tstop\n")
	}

	return b.String()
}

// WriteRules writes a rules file, creating parent directories as needed.
// An existing file is an error unless force is set.
func WriteRules(path, content string, force bool) error {
	const op = "wizard.WriteRules"

	if _, err := os.Stat(path); err == nil && !force {
		return perrors.Config(op, fmt.Sprintf("rules file already exists: %s (use --force to overwrite)", path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return perrors.IOWrap(err, op, "creating rules directory")
	}

	if err := fileutil.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
		return perrors.IOWrap(err, op, fmt.Sprintf("writing rules file %s", path))
	}

	return nil
}

// DefaultDownloads returns the XDG downloads directory, or a
// conventional fallback when the lookup has nothing.
func DefaultDownloads() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

// DefaultDestination returns the home directory, so the category
// subdirectories land next to the usual Videos and Music.
func DefaultDestination() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
