//go:build !unix

package actions

import "errors"

var errNoStatfs = errors.New("free space detection not supported on this platform")

func freeSpace(string) (int64, error) { return 0, errNoStatfs }
