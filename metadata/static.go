package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Static is a Reader returning poses from a lookup table keyed by image path
// or base filename, for images whose pose is kept in a sidecar file
type Static map[string]Pose

// LoadStatic reads a JSON object mapping filenames to poses
func LoadStatic(file string) (Static, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening file")
	}

	var s Static

	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", file)
	}

	return s, nil
}

// Read returns the pose for path, an unknown image gives an empty Pose
func (s Static) Read(path string) (Pose, error) {

	if p, ok := s[path]; ok {
		return p, nil
	}

	return s[filepath.Base(path)], nil
}
