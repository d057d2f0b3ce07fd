package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Source is one queryable store of one browser profile.
type Source struct {
	Kind        Kind
	Family      Family
	Store       StoreType
	ProfileID   string // profile directory name, or the kind's label for single-profile kinds
	DisplayName string
	ProfileDir  string // absolute profile directory; empty for single-profile kinds
	StorePath   string // absolute path to the History/Bookmarks file
	IconHint    string // profile picture path, or empty
}

func (s Source) String() string {
	return fmt.Sprintf("%s/%s (%s)", s.Kind, s.ProfileID, s.Store)
}

// AvatarProvider generates a placeholder profile picture when a browser
// profile has none of its own.
type AvatarProvider interface {
	GetOrCreateAvatar(displayName, profileDirKey, cacheDir string) (string, error)
}

// Registry resolves enabled browser kinds into Sources on disk.
type Registry struct {
	home           string
	specs          []Spec
	enabled        map[Kind]bool
	avatars        AvatarProvider
	avatarCacheDir string
	logger         *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAvatars sets the provider consulted for profiles without a picture.
func WithAvatars(p AvatarProvider, cacheDir string) Option {
	return func(r *Registry) {
		r.avatars = p
		r.avatarCacheDir = cacheDir
	}
}

// WithTable replaces the built-in browser table.
func WithTable(specs []Spec) Option {
	return func(r *Registry) {
		r.specs = specs
	}
}

// NewRegistry creates a Registry rooted at the user's home directory.
// Only the listed kinds are discovered.
func NewRegistry(home string, enabled []Kind, opts ...Option) *Registry {
	r := &Registry{
		home:    home,
		specs:   Table,
		enabled: make(map[Kind]bool, len(enabled)),
		logger:  zap.NewNop(),
	}
	for _, k := range enabled {
		r.enabled[k] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnabledKinds returns the enabled kinds in table order.
func (r *Registry) EnabledKinds() []Kind {
	var out []Kind
	for _, s := range r.specs {
		if r.enabled[s.Kind] {
			out = append(out, s.Kind)
		}
	}
	return out
}

// Discover returns every existing store of the given type across all
// enabled browsers. Missing roots, profiles and files are skipped.
func (r *Registry) Discover(store StoreType) []Source {
	var sources []Source
	for _, spec := range r.specs {
		if !r.enabled[spec.Kind] {
			continue
		}
		if spec.Family.MultiProfile() {
			sources = append(sources, r.discoverProfiles(spec, store)...)
		} else {
			if src, ok := r.discoverSingle(spec, store); ok {
				sources = append(sources, src)
			}
		}
	}
	return sources
}

// Profiles lists every profile of every enabled multi-profile browser,
// whether or not it has history or bookmarks yet.
func (r *Registry) Profiles() []Source {
	var out []Source
	for _, spec := range r.specs {
		if !r.enabled[spec.Kind] || !spec.Family.MultiProfile() {
			continue
		}
		root := filepath.Join(r.home, spec.DataRoot)
		dirs := r.profileDirs(spec, root)
		if len(dirs) == 0 {
			continue
		}
		state := r.loadLocalState(spec, root)
		for _, dir := range dirs {
			out = append(out, r.profileSource(spec, root, dir, state, History, ""))
		}
	}
	return out
}

func (r *Registry) discoverSingle(spec Spec, store StoreType) (Source, bool) {
	path := filepath.Join(r.home, spec.DataRoot, spec.StoreFile(store))
	if !isFile(path) {
		r.logger.Debug("store not found", zap.String("kind", string(spec.Kind)), zap.String("path", path))
		return Source{}, false
	}
	r.logger.Debug("store found", zap.String("kind", string(spec.Kind)), zap.String("path", path))
	return Source{
		Kind:        spec.Kind,
		Family:      spec.Family,
		Store:       store,
		ProfileID:   spec.Label,
		DisplayName: spec.Label,
		StorePath:   path,
	}, true
}

func (r *Registry) discoverProfiles(spec Spec, store StoreType) []Source {
	root := filepath.Join(r.home, spec.DataRoot)
	dirs := r.profileDirs(spec, root)
	if len(dirs) == 0 {
		return nil
	}

	state := r.loadLocalState(spec, root)
	var out []Source
	for _, dir := range dirs {
		path := filepath.Join(root, dir, spec.StoreFile(store))
		if !isFile(path) {
			r.logger.Debug("store not found",
				zap.String("kind", string(spec.Kind)),
				zap.String("profile", dir),
				zap.String("path", path),
			)
			continue
		}
		src := r.profileSource(spec, root, dir, state, store, path)
		r.logger.Debug("store found",
			zap.String("kind", string(spec.Kind)),
			zap.String("profile", src.DisplayName),
			zap.String("path", path),
		)
		out = append(out, src)
	}
	return out
}

func (r *Registry) profileSource(spec Spec, root, dir string, state *localState, store StoreType, path string) Source {
	src := Source{
		Kind:        spec.Kind,
		Family:      spec.Family,
		Store:       store,
		ProfileID:   dir,
		DisplayName: state.displayName(dir),
		ProfileDir:  filepath.Join(root, dir),
		StorePath:   path,
		IconHint:    state.pictureFile(root, dir),
	}
	if src.IconHint == "" {
		src.IconHint = r.avatar(spec, src)
	}
	return src
}

func (r *Registry) avatar(spec Spec, src Source) string {
	if r.avatars == nil {
		return ""
	}
	key := fmt.Sprintf("%s_%s", spec.Kind, src.ProfileID)
	path, err := r.avatars.GetOrCreateAvatar(src.DisplayName, key, r.avatarCacheDir)
	if err != nil {
		r.logger.Warn("avatar generation failed",
			zap.String("kind", string(spec.Kind)),
			zap.String("profile", src.ProfileID),
			zap.Error(err),
		)
		return ""
	}
	return path
}

var profileDirPattern = regexp.MustCompile(`^Profile (\d+)$`)

// profileDirs lists "Default" followed by "Profile <N>" directories in
// ascending N under root.
func (r *Registry) profileDirs(spec Spec, root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		r.logger.Debug("browser data root not found",
			zap.String("kind", string(spec.Kind)),
			zap.String("path", root),
		)
		return nil
	}

	type numbered struct {
		name string
		n    int
	}
	var hasDefault bool
	var profiles []numbered
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "Default" {
			hasDefault = true
			continue
		}
		if m := profileDirPattern.FindStringSubmatch(name); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			profiles = append(profiles, numbered{name: name, n: n})
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].n < profiles[j].n })

	var out []string
	if hasDefault {
		out = append(out, "Default")
	}
	for _, p := range profiles {
		out = append(out, p.name)
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
