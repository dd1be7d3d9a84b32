// Package capability inspects static facts about the host once at startup and
// reports which native biometric paths are usable.
package capability

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Platform is the OS family as far as biometric support is concerned.
type Platform string

const (
	// PlatformWindows is the only family with a native fingerprint subsystem.
	PlatformWindows Platform = "windows"
	PlatformOther   Platform = "other"
)

// Capability is the process-wide hardware snapshot.
//
// Invariant: FingerprintHardwareAvailable is false whenever Platform is not
// PlatformWindows. Detector enforces it; Capability values built by hand in
// tests should respect it too.
type Capability struct {
	Platform                     Platform
	OS                           string
	FingerprintHardwareAvailable bool
}

// NativeFingerprint reports whether the native fingerprint path applies.
func (c Capability) NativeFingerprint() bool {
	return c.Platform == PlatformWindows && c.FingerprintHardwareAvailable
}

// Probe reports whether the platform biometric subsystem indicator is present.
// It must only look at static facts, never at live sensor state.
type Probe func() (bool, error)

// Detector produces the Capability snapshot exactly once.
type Detector struct {
	goos   string
	probe  Probe
	logger *slog.Logger

	once     sync.Once
	snapshot Capability
}

type Option func(*Detector)

// WithGOOS overrides the OS name, for tests.
func WithGOOS(goos string) Option {
	return func(d *Detector) { d.goos = goos }
}

// WithProbe replaces the subsystem indicator probe.
func WithProbe(p Probe) Option {
	return func(d *Detector) { d.probe = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// New builds a Detector for the running host.
func New(opts ...Option) *Detector {
	d := &Detector{
		goos:   runtime.GOOS,
		probe:  WindowsBiometricProbe(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the capability snapshot, probing on the first call only.
// It never fails: any probe error or panic degrades to "unavailable".
func (d *Detector) Detect() Capability {
	d.once.Do(func() {
		d.snapshot = d.detect()
		d.logger.Info("hardware capability detected",
			"platform", d.snapshot.Platform,
			"os", d.snapshot.OS,
			"fingerprint_hardware_available", d.snapshot.FingerprintHardwareAvailable,
		)
	})
	return d.snapshot
}

func (d *Detector) detect() Capability {
	c := Capability{Platform: PlatformFor(d.goos), OS: d.goos}
	if c.Platform != PlatformWindows || d.probe == nil {
		return c
	}
	c.FingerprintHardwareAvailable = d.runProbe()
	return c
}

func (d *Detector) runProbe() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("biometric subsystem probe panicked; assuming unavailable", "panic", fmt.Sprint(r))
			available = false
		}
	}()

	ok, err := d.probe()
	if err != nil {
		d.logger.Warn("biometric subsystem probe failed; assuming unavailable", "error", err)
		return false
	}
	return ok
}

// PlatformFor maps a GOOS value to its Platform family.
func PlatformFor(goos string) Platform {
	if goos == "windows" {
		return PlatformWindows
	}
	return PlatformOther
}

// StatFunc matches os.Stat.
type StatFunc func(name string) (fs.FileInfo, error)

// FileProbe reports the indicator as present when path exists. A missing file
// is a negative answer, not an error.
func FileProbe(path string, stat StatFunc) Probe {
	return func() (bool, error) {
		if _, err := stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("stat %s: %w", path, err)
		}
		return true, nil
	}
}

// WindowsBiometricProbe checks for the Windows Biometric Framework library.
func WindowsBiometricProbe() Probe {
	root := os.Getenv("SystemRoot")
	if root == "" {
		root = `C:\Windows`
	}
	return FileProbe(filepath.Join(root, "System32", "winbio.dll"), os.Stat)
}
