package browser

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// localState is the subset of Chromium's "Local State" file we read.
// A nil *localState is valid and resolves every profile to its
// directory name.
type localState struct {
	Profile struct {
		InfoCache map[string]profileInfo `json:"info_cache"`
	} `json:"profile"`
}

type profileInfo struct {
	Name                string `json:"name"`
	UserName            string `json:"user_name"`
	GaiaPictureFileName string `json:"gaia_picture_file_name"`
}

// loadLocalState reads the kind's Local State document. A missing file is
// expected; a malformed one is logged. Both return nil.
func (r *Registry) loadLocalState(spec Spec, root string) *localState {
	if spec.LocalStateFile == "" {
		return nil
	}
	path := filepath.Join(root, spec.LocalStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("read Local State",
				zap.String("kind", string(spec.Kind)),
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return nil
	}

	var st localState
	if err := json.Unmarshal(data, &st); err != nil {
		r.logger.Warn("parse Local State",
			zap.String("kind", string(spec.Kind)),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}
	return &st
}

func (s *localState) info(dir string) (profileInfo, bool) {
	if s == nil || s.Profile.InfoCache == nil {
		return profileInfo{}, false
	}
	info, ok := s.Profile.InfoCache[dir]
	return info, ok
}

// displayName prefers the profile's name, then its signed-in user name,
// then the directory name.
func (s *localState) displayName(dir string) string {
	info, ok := s.info(dir)
	if !ok {
		return dir
	}
	if info.Name != "" {
		return info.Name
	}
	if info.UserName != "" {
		return info.UserName
	}
	return dir
}

// pictureFile returns the profile's picture if Local State names one and
// it exists inside the profile directory.
func (s *localState) pictureFile(root, dir string) string {
	info, ok := s.info(dir)
	if !ok || info.GaiaPictureFileName == "" {
		return ""
	}
	path := filepath.Join(root, dir, info.GaiaPictureFileName)
	if !isFile(path) {
		return ""
	}
	return path
}
