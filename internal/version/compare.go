package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility reports whether results recorded by recordedVersion can
// be read by an engine at engineVersion.
//
// Major and minor versions must match; patch versions may differ. A "main"
// development build on either side, or a missing recorded version, skips the check.
func CheckVersionCompatibility(engineVersion, recordedVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	recordedVersion = strings.TrimPrefix(recordedVersion, "v")

	if engineVersion == "main" || recordedVersion == "main" || recordedVersion == "" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	recordedSemver, err := semver.NewVersion(recordedVersion)
	if err != nil {
		return fmt.Errorf("invalid recorded version '%s': %w", recordedVersion, err)
	}

	if engineSemver.Major() != recordedSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but results were written by %d.x.x",
			engineSemver.Major(), recordedSemver.Major())
	}

	if engineSemver.Minor() != recordedSemver.Minor() {
		return fmt.Errorf("minor version mismatch: engine is %d.%d.x but results were written by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			recordedSemver.Major(), recordedSemver.Minor())
	}

	return nil
}
