package config

import (
	"strings"

	"github.com/samber/lo"
)

// w3cCapabilities are sent without the appium: vendor prefix.
var w3cCapabilities = map[string]bool{
	"platformName":              true,
	"browserName":               true,
	"browserVersion":            true,
	"acceptInsecureCerts":       true,
	"pageLoadStrategy":          true,
	"proxy":                     true,
	"setWindowRect":             true,
	"timeouts":                  true,
	"strictFileInteractability": true,
	"unhandledPromptBehavior":   true,
	"webSocketUrl":              true,
}

// DefaultCapabilities targets the system Settings app over UiAutomator2.
func DefaultCapabilities() map[string]interface{} {
	return map[string]interface{}{
		"platformName":   "Android",
		"automationName": "UiAutomator2",
		"appPackage":     "com.android.settings",
		"appActivity":    ".Settings",
		"language":       "en",
	}
}

// MergeCapabilities merges capability maps left to right; later maps win.
// Keys are normalized first so "deviceName" and "appium:deviceName" collide.
func MergeCapabilities(maps ...map[string]interface{}) map[string]interface{} {
	normalized := lo.Map(maps, func(m map[string]interface{}, _ int) map[string]interface{} {
		return NormalizeCapabilities(m)
	})
	return lo.Assign(normalized...)
}

// NormalizeCapabilities adds the appium: prefix to non-W3C keys.
func NormalizeCapabilities(caps map[string]interface{}) map[string]interface{} {
	return lo.MapKeys(caps, func(_ interface{}, key string) string {
		if w3cCapabilities[key] || strings.Contains(key, ":") {
			return key
		}
		return "appium:" + key
	})
}

// DeviceName returns the device identity used in the report header.
func DeviceName(caps map[string]interface{}) string {
	for _, key := range []string{"appium:deviceName", "appium:udid", "deviceName", "udid"} {
		if v, ok := caps[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// StringCap returns a string capability by its bare name.
func StringCap(caps map[string]interface{}, name string) string {
	if v, ok := caps[name].(string); ok {
		return v
	}
	if v, ok := caps["appium:"+name].(string); ok {
		return v
	}
	return ""
}
