package main

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// profileFileName is the name of the build profile file looked up in the
// build directory.
const profileFileName = "sable.toml"

// BuildProfile is the deserialized build configuration of a unit.
type BuildProfile struct {
	// Name is the name of the unit being built.
	Name string `toml:"name"`

	// OutPath is the path the emitted IR is written to.
	OutPath string `toml:"out-path"`
}

// defaultProfile is the profile used when no profile file is present.
func defaultProfile() *BuildProfile {
	return &BuildProfile{Name: "unit", OutPath: "out.ll"}
}

// loadProfile loads the build profile of the given directory, falling back to
// the default profile when no profile file exists.  Fields missing from the
// file keep their default values; the values read are not checked.
func loadProfile(dir string) (*BuildProfile, error) {
	buff, err := os.ReadFile(filepath.Join(dir, profileFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return defaultProfile(), nil
		}

		return nil, err
	}

	profile := defaultProfile()
	if err := toml.Unmarshal(buff, profile); err != nil {
		return nil, err
	}

	return profile, nil
}
