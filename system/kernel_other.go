//go:build !unix

package system

func kernelVersion() (string, error) {
	return "", nil
}
