// Package mock provides a scripted driver for testing without a device.
package mock

import (
	"context"
	"sync"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
)

// Element is a scripted UI element.
type Element struct {
	Attributes   map[string]string
	NotClickable bool

	// OnClick runs after the element is clicked, e.g. to flip a switch.
	OnClick func(d *Driver)
}

// Config configures mock driver behavior.
type Config struct {
	Platform      string
	DeviceID      string
	Screenshot    []byte
	ScreenshotErr error
}

// Driver is a mock implementation of core.Driver.
type Driver struct {
	Config Config

	mu       sync.Mutex
	elements map[core.Locator]*Element
	clicks   []core.Locator
	shots    int
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "mock-device"
	}
	if cfg.Screenshot == nil {
		cfg.Screenshot = []byte("\x89PNG\r\n\x1a\n")
	}
	return &Driver{Config: cfg, elements: make(map[core.Locator]*Element)}
}

// Add places an element on screen.
func (d *Driver) Add(loc core.Locator, el *Element) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el.Attributes == nil {
		el.Attributes = make(map[string]string)
	}
	d.elements[loc] = el
	return d
}

// Set changes one attribute of an element already on screen.
func (d *Driver) Set(loc core.Locator, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elements[loc]; ok {
		el.Attributes[name] = value
	}
}

// Remove takes an element off screen. Handles to it become stale.
func (d *Driver) Remove(loc core.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, loc)
}

// Clicks returns the locators of clicked elements in order.
func (d *Driver) Clicks() []core.Locator {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]core.Locator(nil), d.clicks...)
}

// Screenshots returns how many screenshots were taken.
func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shots
}

func (d *Driver) lookup(loc core.Locator) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[loc]
	return el, ok
}

// WaitPresent returns the element or a wait timeout when it is absent.
func (d *Driver) WaitPresent(ctx context.Context, loc core.Locator) (*core.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := d.lookup(loc); !ok {
		return nil, core.ErrWaitTimeout.
			WithMessage("timed out waiting for " + loc.Describe()).
			WithCause(core.ErrElementNotFound)
	}
	return &core.Element{ID: loc.Describe(), Locator: loc}, nil
}

// WaitClickable also fails for elements marked NotClickable.
func (d *Driver) WaitClickable(ctx context.Context, loc core.Locator) (*core.Element, error) {
	el, err := d.WaitPresent(ctx, loc)
	if err != nil {
		return nil, err
	}
	if scripted, _ := d.lookup(loc); scripted.NotClickable {
		return nil, core.ErrWaitTimeout.
			WithMessage("timed out waiting for " + loc.Describe()).
			WithCause(core.ErrElementNotClickable)
	}
	return el, nil
}

// Click records the click and runs the element's OnClick.
func (d *Driver) Click(ctx context.Context, el *core.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scripted, ok := d.lookup(el.Locator)
	if !ok {
		return core.ErrStaleElement.WithMessage("stale element: " + el.Locator.Describe())
	}
	d.mu.Lock()
	d.clicks = append(d.clicks, el.Locator)
	d.mu.Unlock()
	if scripted.OnClick != nil {
		scripted.OnClick(d)
	}
	return nil
}

// Attribute returns the scripted attribute value ("" when unset).
func (d *Driver) Attribute(ctx context.Context, el *core.Element, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	scripted, ok := d.elements[el.Locator]
	if !ok {
		return "", core.ErrStaleElement.WithMessage("stale element: " + el.Locator.Describe())
	}
	return scripted.Attributes[name], nil
}

// Screenshot returns the configured image.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.shots++
	d.mu.Unlock()
	if d.Config.ScreenshotErr != nil {
		return nil, d.Config.ScreenshotErr
	}
	return d.Config.Screenshot, nil
}

// GetPlatformInfo returns mock platform info.
func (d *Driver) GetPlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{
		Platform:   d.Config.Platform,
		DeviceID:   d.Config.DeviceID,
		DeviceName: d.Config.DeviceID,
		OSVersion:  "14",
	}
}

var _ core.Driver = (*Driver)(nil)
