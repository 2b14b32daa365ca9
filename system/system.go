package system

import (
	"runtime"

	"github.com/acobaugh/osrelease"
)

type Information struct {
	Version       string `json:"version"`
	KernelVersion string `json:"kernel_version"`
	Architecture  string `json:"architecture"`
	OS            string `json:"os"`
	Distribution  string `json:"distribution"`
	CpuCount      int    `json:"cpu_count"`
}

// GetSystemInformation describes the host. Values that cannot be determined
// on this platform are left empty.
func GetSystemInformation() (*Information, error) {
	k, err := kernelVersion()
	if err != nil {
		return nil, err
	}

	s := &Information{
		Version:       Version,
		KernelVersion: k,
		Architecture:  runtime.GOARCH,
		OS:            runtime.GOOS,
		CpuCount:      runtime.NumCPU(),
	}
	if release, err := osrelease.Read(); err == nil {
		s.Distribution = FirstNotEmpty(release["PRETTY_NAME"], release["NAME"])
	}

	return s, nil
}
