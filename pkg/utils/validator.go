package utils

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/blang/semver"
)

var (
	keyNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,62}$`)
	streamPattern  = regexp.MustCompile(`^\d+\.\d+$`)
)

func ValidateIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}
	return nil
}

func ValidateCIDR(cidr string) error {
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		return fmt.Errorf("invalid CIDR: %s", cidr)
	}
	return nil
}

// ValidateKeyName accepts names that are safe as a file name and as a shell
// argument.
func ValidateKeyName(name string) error {
	if !keyNamePattern.MatchString(name) {
		return fmt.Errorf("key name must be 1-63 characters of letters, digits, '.', '_' or '-': %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("key name must not contain '..': %q", name)
	}
	return nil
}

// ValidateRelease accepts a full x.y.z release version.
func ValidateRelease(version string) error {
	if _, err := semver.Parse(version); err != nil {
		return fmt.Errorf("invalid release version %q: %v", version, err)
	}
	return nil
}

// ValidateStream accepts an x.y release stream.
func ValidateStream(stream string) error {
	if !streamPattern.MatchString(stream) {
		return fmt.Errorf("invalid release stream %q", stream)
	}
	return nil
}

// SanitizeString strips shell metacharacters.
func SanitizeString(input string) string {
	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\n"}
	result := input

	for _, char := range dangerous {
		result = strings.ReplaceAll(result, char, "")
	}

	return strings.TrimSpace(result)
}

// StreamOf returns the x.y stream of an x.y.z version.
func StreamOf(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
