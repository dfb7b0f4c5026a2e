package core

import (
	"context"
	"fmt"
	"strings"
)

// Driver defines the device operations a step can perform.
// The Appium driver is the production implementation; tests use fakes.
type Driver interface {
	// WaitPresent waits until an element matching loc exists.
	WaitPresent(ctx context.Context, loc Locator) (*Element, error)

	// WaitClickable waits until an element matching loc is displayed and enabled.
	WaitClickable(ctx context.Context, loc Locator) (*Element, error)

	// Click clicks a previously located element.
	Click(ctx context.Context, el *Element) error

	// Attribute reads an attribute (text, checked, content-desc, ...) of an element.
	Attribute(ctx context.Context, el *Element, name string) (string, error)

	// Screenshot captures the current screen as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// GetPlatformInfo returns device/platform information
	GetPlatformInfo() *PlatformInfo
}

// Strategy is a WebDriver locator strategy.
type Strategy string

// Locator strategies used against UiAutomator2.
const (
	ByAccessibilityID Strategy = "accessibility id"
	ByID              Strategy = "id"
	ByXPath           Strategy = "xpath"
	ByUiAutomator     Strategy = "-android uiautomator"
)

// Locator is a query used to find a UI element.
type Locator struct {
	Strategy Strategy `json:"using" yaml:"using"`
	Value    string   `json:"value" yaml:"value"`
}

// AccessibilityID locates by content-desc.
func AccessibilityID(desc string) Locator {
	return Locator{Strategy: ByAccessibilityID, Value: desc}
}

// ResourceID locates by resource id (e.g. android:id/button1).
func ResourceID(id string) Locator {
	return Locator{Strategy: ByID, Value: id}
}

// XPath locates by an XPath expression over the page source.
func XPath(expr string) Locator {
	return Locator{Strategy: ByXPath, Value: expr}
}

// UiSelector locates by a raw UiAutomator selector expression.
func UiSelector(expr string) Locator {
	return Locator{Strategy: ByUiAutomator, Value: expr}
}

// UiText locates by exact text using a UiSelector.
func UiText(text string) Locator {
	return UiSelector(fmt.Sprintf(`new UiSelector().text("%s")`, EscapeUiAutomatorString(text)))
}

// Describe returns a human-readable form of the locator.
func (l Locator) Describe() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// EscapeUiAutomatorString escapes quotes for UiAutomator string
func EscapeUiAutomatorString(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Element is a handle to an element found in the current session.
type Element struct {
	ID      string  `json:"id"`
	Locator Locator `json:"locator"`
}

// PlatformInfo contains device and platform details
type PlatformInfo struct {
	Platform   string `json:"platform"`            // android
	OSVersion  string `json:"osVersion"`           // e.g., "14"
	DeviceName string `json:"deviceName"`          // e.g., "Pixel 8" or serial
	DeviceID   string `json:"deviceId"`            // Unique device identifier
	AppID      string `json:"appId,omitempty"`     // Package name
	Activity   string `json:"activity,omitempty"`  // Launch activity
	SessionID  string `json:"sessionId,omitempty"` // Appium session
}
