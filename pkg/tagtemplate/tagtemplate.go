// SPDX-License-Identifier: Apache-2.0

// Package tagtemplate is the Tag Template Engine: it expands
// a `{token}` template against deployment metadata and a deterministic
// version derived from the entity set, then sanitizes the result for each
// downstream destination (git, Docker, Helm, Kubernetes, filenames, Azure).
package tagtemplate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Metadata is the raw, unsanitized values a template's tokens resolve to.
// Fields left empty are filled from Fallbacks before expansion.
type Metadata struct {
	Branch         string
	Repo           string
	CommitHash     string
	CommitHashFull string
	BuildNumber    string
	User           string
	Database       string
	Environment    string
	Vertical       string
	Date           string // YYYY-MM-DD
	Datetime       string // YYYYMMDDHHmmss

	EntityCount       int
	PropertyCount     int
	RelationshipCount int
}

var supportedTokens = map[string]bool{
	"branch": true, "repo": true, "version": true, "major": true, "minor": true,
	"patch": true, "date": true, "datetime": true, "commit-hash": true,
	"commit-hash-full": true, "build-number": true, "user": true, "database": true,
	"environment": true, "vertical": true,
}

var tokenPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// UnknownTokenError is returned when a template references a token not in
// supportedTokens.
type UnknownTokenError struct{ Token string }

func (e UnknownTokenError) Error() string { return fmt.Sprintf("tagtemplate: unknown token %q", e.Token) }

// UnbalancedBracesError is returned when a template's braces don't nest
// validly (including nested `{` which this engine never supports).
type UnbalancedBracesError struct{ Template string }

func (e UnbalancedBracesError) Error() string {
	return fmt.Sprintf("tagtemplate: unbalanced or nested braces in template %q", e.Template)
}

// Validate checks brace balance, rejects nesting, and confirms every token
// is supported. Case-insensitive on token names.
func Validate(template string) error {
	depth := 0
	for _, r := range template {
		switch r {
		case '{':
			depth++
			if depth > 1 {
				return UnbalancedBracesError{Template: template}
			}
		case '}':
			depth--
			if depth < 0 {
				return UnbalancedBracesError{Template: template}
			}
		}
	}
	if depth != 0 {
		return UnbalancedBracesError{Template: template}
	}

	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		if !supportedTokens[strings.ToLower(m[1])] {
			return UnknownTokenError{Token: m[1]}
		}
	}
	return nil
}

// Version deterministically derives major.minor.patch from the entity
// counts: major is always 1; minor steps with entity count; patch is the
// property+relationship count mod 100.
func Version(m Metadata) string {
	return fmt.Sprintf("%d.%d.%d", 1, minorFor(m.EntityCount), patchFor(m))
}

func minorFor(entityCount int) int {
	switch {
	case entityCount == 0:
		return 0
	case entityCount <= 5:
		return 1
	case entityCount <= 15:
		return 2
	case entityCount <= 30:
		return 3
	default:
		minor := entityCount / 10
		if minor > 9 {
			return 9
		}
		return minor
	}
}

func patchFor(m Metadata) int {
	sum := (m.PropertyCount + m.RelationshipCount) % 100
	if sum > 99 {
		return 99
	}
	return sum
}

// Fallbacks fills in deterministic defaults for any metadata field a caller
// couldn't resolve (no git repository, no network). nowDate and
// buildTimestamp are injected by the caller since this package cannot call
// time.Now — template expansion must stay pure so the same Metadata always
// expands to the same tag.
func Fallbacks(m Metadata, nowDate, buildTimestamp string) Metadata {
	if m.Branch == "" {
		m.Branch = "main"
	}
	if m.Repo == "" {
		m.Repo = "unknown-repo"
	}
	if m.CommitHash == "" {
		m.CommitHash = "unknown"
	}
	if m.CommitHashFull == "" {
		m.CommitHashFull = "unknown"
	}
	if m.BuildNumber == "" {
		m.BuildNumber = buildTimestamp
	}
	if m.User == "" {
		m.User = "system"
	}
	if m.Date == "" {
		m.Date = nowDate
	}
	if m.Datetime == "" {
		m.Datetime = buildTimestamp
	}
	return m
}

// Expand substitutes every token in template with its resolved value.
// Validate should be called first; Expand does not re-check token support.
func Expand(template string, m Metadata) string {
	version := Version(m)
	major, minor, patch := splitVersion(version)

	values := map[string]string{
		"branch": m.Branch, "repo": m.Repo, "version": version,
		"major": major, "minor": minor, "patch": patch,
		"date": m.Date, "datetime": m.Datetime,
		"commit-hash": m.CommitHash, "commit-hash-full": m.CommitHashFull,
		"build-number": m.BuildNumber, "user": m.User, "database": m.Database,
		"environment": m.Environment, "vertical": m.Vertical,
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(tok string) string {
		key := strings.ToLower(tok[1 : len(tok)-1])
		return values[key]
	})
}

func splitVersion(v string) (major, minor, patch string) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return v, "0", "0"
	}
	return parts[0], parts[1], parts[2]
}

var (
	gitTagInvalid = regexp.MustCompile(`[~^:?*\[\]\\\s]`)
	dotRuns       = regexp.MustCompile(`\.\.+`)
	dockerInvalid = regexp.MustCompile(`[^a-z0-9._-]`)
	k8sInvalid    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	filenameInvalid = regexp.MustCompile(`[<>:"/\\|?*]`)
	azureInvalid  = regexp.MustCompile(`[^a-zA-Z0-9-]`)
)

// GitTag sanitizes a generated tag into a valid git ref name: strip
// `~^:?*[]\` and whitespace, collapse `..` runs, trim leading `.`/`-`, cap
// at 250 characters.
func GitTag(generated string) string {
	s := gitTagInvalid.ReplaceAllString(generated, "")
	s = dotRuns.ReplaceAllString(s, ".")
	s = strings.TrimLeft(s, ".-")
	if len(s) > 250 {
		s = s[:250]
	}
	return s
}

// DockerTag sanitizes into a lowercase, hyphen-only Docker tag.
func DockerTag(generated string) string {
	s := strings.ToLower(generated)
	s = strings.NewReplacer("/", "-", "_", "-").Replace(s)
	s = dockerInvalid.ReplaceAllString(s, "")
	return s
}

var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// HelmChartVersion tries to extract a valid SemVer from generated (checked
// with x/mod/semver); falls back to "1.0.0" when none is found.
func HelmChartVersion(generated string) string {
	for _, token := range semverPattern.FindAllString(generated, -1) {
		if semver.IsValid("v" + token) {
			return token
		}
	}
	return "1.0.0"
}

// KubernetesLabel sanitizes into a valid Kubernetes label value.
func KubernetesLabel(generated string) string {
	s := k8sInvalid.ReplaceAllString(generated, "-")
	s = strings.Trim(s, "-_.")
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}

// FileSafe sanitizes into a filename valid on Windows and POSIX filesystems.
func FileSafe(generated string) string {
	return filenameInvalid.ReplaceAllString(generated, "-")
}

// AzureResourceName sanitizes into an alphanumeric-and-hyphen Azure resource
// name.
func AzureResourceName(generated string) string {
	return azureInvalid.ReplaceAllString(generated, "-")
}
