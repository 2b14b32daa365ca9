//go:build unix

package system

import (
	"emperror.dev/errors"
	"golang.org/x/sys/unix"
)

func kernelVersion() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", errors.Wrap(err, "system: failed to read kernel version")
	}
	return unix.ByteSliceToString(u.Release[:]), nil
}
