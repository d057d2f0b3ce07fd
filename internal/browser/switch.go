package browser

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/browsersearch/internal/logging"
)

// DefaultSwitchTimeout bounds a single launch command.
const DefaultSwitchTimeout = 10 * time.Second

// WindowFocuser brings an already running browser profile to the front.
// Both methods are best effort; errors are logged, never fatal.
type WindowFocuser interface {
	FindRunningProfile(ctx context.Context, kind Kind, profileID string) (bool, error)
	Focus(ctx context.Context, kind Kind, profileID string) (bool, error)
}

// CommandRunner runs an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec and includes its output in
// the returned error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

type launchFunc func(profileID string) []string

// buildLaunchTable maps every kind to its launch command.
func buildLaunchTable(specs []Spec) map[Kind]launchFunc {
	table := make(map[Kind]launchFunc, len(specs))
	for _, spec := range specs {
		app := spec.AppName
		switch spec.Family {
		case FamilyChromium:
			table[spec.Kind] = func(profileID string) []string {
				return []string{"open", "-na", app, "--args", "--profile-directory=" + profileID}
			}
		default:
			table[spec.Kind] = func(string) []string {
				return []string{"open", "-a", app}
			}
		}
	}
	return table
}

// Switcher opens a browser profile, focusing it instead when it is
// already running.
type Switcher struct {
	launch  map[Kind]launchFunc
	focuser WindowFocuser
	run     CommandRunner
	timeout time.Duration
	logger  *zap.Logger
}

// NewSwitcher creates a Switcher. focuser may be nil; run defaults to
// ExecRunner.
func NewSwitcher(focuser WindowFocuser, run CommandRunner, logger *zap.Logger) *Switcher {
	if run == nil {
		run = ExecRunner
	}
	logger = logging.OrNop(logger)
	return &Switcher{
		launch:  buildLaunchTable(Table),
		focuser: focuser,
		run:     run,
		timeout: DefaultSwitchTimeout,
		logger:  logger,
	}
}

// LaunchCommand returns the command line that opens profileID of kind.
func (s *Switcher) LaunchCommand(kind Kind, profileID string) ([]string, error) {
	fn, ok := s.launch[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return fn(profileID), nil
}

// Switch focuses the profile if a focuser finds it running, otherwise
// launches it.
func (s *Switcher) Switch(ctx context.Context, kind Kind, profileID string) error {
	cmd, err := s.LaunchCommand(kind, profileID)
	if err != nil {
		return err
	}

	if s.focuser != nil && s.tryFocus(ctx, kind, profileID) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.run(ctx, cmd[0], cmd[1:]...); err != nil {
		return fmt.Errorf("switch to %s/%s: %w", kind, profileID, err)
	}
	s.logger.Info("launched profile", zap.String("kind", string(kind)), zap.String("profile", profileID))
	return nil
}

func (s *Switcher) tryFocus(ctx context.Context, kind Kind, profileID string) bool {
	fields := []zap.Field{zap.String("kind", string(kind)), zap.String("profile", profileID)}

	running, err := s.focuser.FindRunningProfile(ctx, kind, profileID)
	if err != nil {
		s.logger.Warn("find running profile", append(fields, zap.Error(err))...)
		return false
	}
	if !running {
		return false
	}

	ok, err := s.focuser.Focus(ctx, kind, profileID)
	if err != nil {
		s.logger.Warn("focus profile", append(fields, zap.Error(err))...)
		return false
	}
	return ok
}
