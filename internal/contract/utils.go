package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/huangsam/classdrift/schema"
)

// Color variables for console output.
var (
	AddedColor     = color.New(color.FgGreen, color.Bold) // new classes
	ModifiedColor  = color.New(color.FgYellow)            // changed classes
	DeletedColor   = color.New(color.FgRed, color.Bold)   // classes gone in the next release
	UnchangedColor = color.New(color.FgCyan)              // stable classes

	FoundationColor = color.New(color.FgBlue, color.Bold)
	MidColor        = color.New(color.FgMagenta)
	TopColor        = color.New(color.FgYellow)
	FreeColor       = color.New(color.FgWhite)
)

// GetStatusLabel returns the evolution status label, coloured when requested.
func GetStatusLabel(status int, useColors bool) string {
	text := schema.EvolutionStatusName(status)
	if !useColors {
		return text
	}
	switch status {
	case schema.StatusAdded:
		return AddedColor.Sprint(text)
	case schema.StatusModified:
		return ModifiedColor.Sprint(text)
	case schema.StatusDeleted:
		return DeletedColor.Sprint(text)
	case schema.StatusUnchanged:
		return UnchangedColor.Sprint(text)
	default:
		return text
	}
}

// GetLayerLabel returns the layer label, coloured when requested.
func GetLayerLabel(layer int, useColors bool) string {
	text := schema.LayerName(layer)
	if !useColors {
		return text
	}
	switch layer {
	case schema.LayerFoundation:
		return FoundationColor.Sprint(text)
	case schema.LayerMid:
		return MidColor.Sprint(text)
	case schema.LayerTop:
		return TopColor.Sprint(text)
	case schema.LayerFree:
		return FreeColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// PackageFilter holds the include/exclude package filters of a history.
// A filter containing glob characters is matched with doublestar against the
// package name written with slashes; any other filter is a substring test.
type PackageFilter struct {
	Includes []string
	Excludes []string
}

// Keep reports whether a class in the given package survives the filters.
// Exclude is checked first and short-circuits.
func (f PackageFilter) Keep(pkg string) bool {
	if matchesAny(pkg, f.Excludes) {
		return false
	}
	if len(f.Includes) == 0 {
		return true
	}
	return matchesAny(pkg, f.Includes)
}

// ValidatePatterns returns an error for any malformed glob filter.
func (f PackageFilter) ValidatePatterns() error {
	for _, p := range append(append([]string{}, f.Includes...), f.Excludes...) {
		if isGlob(p) && !doublestar.ValidatePattern(toSlashes(p)) {
			return fmt.Errorf("invalid package filter pattern %q", p)
		}
	}
	return nil
}

func matchesAny(pkg string, filters []string) bool {
	for _, f := range filters {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if isGlob(f) {
			if ok, err := doublestar.Match(toSlashes(f), toSlashes(pkg)); err == nil && ok {
				return true
			}
			continue
		}
		if strings.Contains(pkg, f) {
			return true
		}
	}
	return false
}

func isGlob(p string) bool { return strings.ContainsAny(p, "*?[") }

func toSlashes(s string) string { return strings.ReplaceAll(s, ".", "/") }

// HasAnyPrefix reports whether name starts with one of the prefixes.
func HasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogProgress writes a progress line to stderr so stdout stays clean for reports.
// The emoji prefix is only used when enabled, and nothing is written in quiet mode.
func LogProgress(cfg *Config, emoji, format string, args ...any) {
	if cfg != nil && cfg.Quiet {
		return
	}
	line := fmt.Sprintf(format, args...)
	if cfg != nil && cfg.UseEmojis && emoji != "" {
		line = emoji + " " + line
	}
	_, _ = fmt.Fprintln(os.Stderr, line)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for snapshot storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".classdrift_store.db"
	}
	return filepath.Join(homeDir, ".classdrift_store.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for run tracking.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".classdrift_runs.db"
	}
	return filepath.Join(homeDir, ".classdrift_runs.db")
}

// TruncateName fits a class name to a maximum width. The package is abbreviated
// first; when that is still too wide the name is cut with an ellipsis prefix.
// Requires maxWidth > 3 to leave room for the prefix and at least one character.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) <= maxWidth || maxWidth <= 3 {
		return name
	}
	runes = []rune(schema.AbbreviateName(name))
	if len(runes) > maxWidth {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return string(runes)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
