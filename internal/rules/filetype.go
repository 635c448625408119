package rules

import (
	"sort"
	"strings"
)

// FileType is a canonical filesystem entry kind testable with `is`.
// Kinds the running platform cannot produce (door, port, whiteout on
// Linux) still parse; they evaluate to false at match time.
type FileType string

const (
	TypeFile     FileType = "file"
	TypeDir      FileType = "dir"
	TypeSymlink  FileType = "symlink"
	TypeCharDev  FileType = "chardev"
	TypeBlockDev FileType = "blockdev"
	TypeFifo     FileType = "fifo"
	TypeSock     FileType = "sock"
	TypeDoor     FileType = "door"
	TypePort     FileType = "port"
	TypeWhiteout FileType = "wht"
)

// fileTypeAliases maps every accepted spelling to its canonical type.
var fileTypeAliases = map[string]FileType{
	"file":     TypeFile,
	"dir":      TypeDir,
	"symlink":  TypeSymlink,
	"link":     TypeSymlink,
	"chardev":  TypeCharDev,
	"blockdev": TypeBlockDev,
	"fifo":     TypeFifo,
	"pipe":     TypeFifo,
	"sock":     TypeSock,
	"socket":   TypeSock,
	"door":     TypeDoor,
	"port":     TypePort,
	"wht":      TypeWhiteout,
	"whiteout": TypeWhiteout,
}

// ParseFileType resolves a type name, case-insensitively, to its
// canonical form.
func ParseFileType(name string) (FileType, bool) {
	ft, ok := fileTypeAliases[strings.ToLower(name)]
	return ft, ok
}

// FileTypeNames returns every accepted type name, sorted, for error
// messages and completion.
func FileTypeNames() []string {
	names := make([]string, 0, len(fileTypeAliases))
	for name := range fileTypeAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
