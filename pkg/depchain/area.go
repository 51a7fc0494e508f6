// Package depchain validates that every external module a package imports is
// declared in its manifest.
package depchain

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownArea is returned for an unrecognized area selector.
var ErrUnknownArea = errors.New("unexpected package type received")

// Area selects which part of a package is checked.
type Area string

const (
	// AreaPackage checks the package root.
	AreaPackage Area = "package"
	// AreaPlugin checks the plugin/ sub-directory.
	AreaPlugin Area = "plugin"
	// AreaCLI checks the cli/ sub-directory.
	AreaCLI Area = "cli"
	// AreaUtils checks the utils/ sub-directory.
	AreaUtils Area = "utils"
)

// Areas lists every known area.
func Areas() []Area {
	return []Area{AreaPackage, AreaPlugin, AreaCLI, AreaUtils}
}

// ParseArea converts a selector into an Area.
func ParseArea(s string) (Area, error) {
	area := Area(s)

	switch area {
	case AreaPackage, AreaPlugin, AreaCLI, AreaUtils:
		return area, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownArea, s)
	}
}

// ParseAreas converts every selector, failing on the first unknown one.
func ParseAreas(names []string) ([]Area, error) {
	areas := make([]Area, 0, len(names))

	for _, name := range names {
		area, err := ParseArea(name)
		if err != nil {
			return nil, err
		}

		areas = append(areas, area)
	}

	return areas, nil
}

// Dir returns the directory the area covers under root.
func (a Area) Dir(root string) (string, error) {
	switch a {
	case AreaPackage:
		return root, nil
	case AreaPlugin, AreaCLI, AreaUtils:
		return filepath.Join(root, string(a)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownArea, a)
	}
}
