//go:build !linux

package filesystem

import (
	"emperror.dev/errors"
)

const defaultBackendKind = BackendOS

func openDiskBackend(string, bool) (Backend, error) {
	return nil, errors.New("filesystem: the unix backend is only available on linux")
}
