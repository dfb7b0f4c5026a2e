// Package core provides the execution model types for netsettings-runner.
package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"
)

// Attachment represents a debug artifact captured during step execution
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot
	ContentType string `json:"contentType"` // MIME type: image/png
	Path        string `json:"path"`        // File path as written to disk
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
)

// Common content types
const (
	ContentTypePNG = "image/png"
)

// Screenshot naming defaults.
const (
	DefaultScreenshotPattern = "{timestamp}_{step}_error.png"
	ScreenshotTimeLayout     = "20060102_150405"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls where failure screenshots go and how they are named.
type ArtifactConfig struct {
	Dir     string `yaml:"screenshotDir" json:"screenshotDir"`         // Default: working directory
	Pattern string `yaml:"screenshotPattern" json:"screenshotPattern"` // Default: {timestamp}_{step}_error.png
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		Dir:     ".",
		Pattern: DefaultScreenshotPattern,
	}
}

// ScreenshotName renders the pattern for a step failing at t.
// Supported placeholders are {timestamp} and {step}.
func ScreenshotName(pattern, step string, t time.Time) (string, error) {
	if pattern == "" {
		pattern = DefaultScreenshotPattern
	}
	tpl, err := fasttemplate.NewTemplate(pattern, "{", "}")
	if err != nil {
		return "", ErrInvalidConfig.WithCause(fmt.Errorf("screenshot pattern %q: %w", pattern, err))
	}
	name := tpl.ExecuteString(map[string]interface{}{
		"timestamp": t.Format(ScreenshotTimeLayout),
		"step":      step,
	})
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidConfig.WithMessage(fmt.Sprintf("screenshot pattern %q renders an invalid file name %q", pattern, name))
	}
	return name, nil
}

// ScreenshotPath returns the file name and full path for a failure screenshot.
func (c ArtifactConfig) ScreenshotPath(step string, t time.Time) (name, path string, err error) {
	name, err = ScreenshotName(c.Pattern, step, t)
	if err != nil {
		return "", "", err
	}
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	return name, filepath.Join(dir, name), nil
}
