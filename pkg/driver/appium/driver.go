package appium

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/logger"
)

// DefaultFindTimeout is the default timeout for element waits.
const DefaultFindTimeout = 10 * time.Second

// DefaultPollInterval is how often a wait re-queries the server.
const DefaultPollInterval = 500 * time.Millisecond

// closeTimeout bounds session deletion so teardown never hangs.
const closeTimeout = 30 * time.Second

// Options configures the driver.
type Options struct {
	FindTimeout  time.Duration // per-wait timeout (default 10s)
	PollInterval time.Duration // wait polling interval (default 500ms)
}

// Driver implements core.Driver using Appium server.
type Driver struct {
	client       *Client
	info         core.PlatformInfo
	findTimeout  time.Duration
	pollInterval time.Duration
}

var _ core.Driver = (*Driver)(nil)

// NewDriver creates a new Appium session and wraps it in a Driver.
func NewDriver(ctx context.Context, serverURL string, capabilities map[string]interface{}, opts Options) (*Driver, error) {
	client := NewClient(serverURL)

	if err := client.Connect(ctx, capabilities); err != nil {
		return nil, classifySessionError(err)
	}

	d := &Driver{
		client:       client,
		findTimeout:  opts.FindTimeout,
		pollInterval: opts.PollInterval,
	}
	if d.findTimeout <= 0 {
		d.findTimeout = DefaultFindTimeout
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultPollInterval
	}
	d.info = platformInfo(client, capabilities)

	return d, nil
}

// Close deletes the Appium session. Safe to call more than once.
func (d *Driver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// GetPlatformInfo implements core.Driver.
func (d *Driver) GetPlatformInfo() *core.PlatformInfo {
	info := d.info
	return &info
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.client.Screenshot(ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	return data, nil
}

// Click implements core.Driver.
func (d *Driver) Click(ctx context.Context, el *core.Element) error {
	if err := d.client.ClickElement(ctx, el.ID); err != nil {
		return fmt.Errorf("click %s: %w", el.Locator.Describe(), classifyError(err))
	}
	return nil
}

// Attribute implements core.Driver. "text" is read through the element text
// endpoint; everything else through the attribute endpoint.
func (d *Driver) Attribute(ctx context.Context, el *core.Element, name string) (string, error) {
	var (
		value string
		err   error
	)
	if name == "text" {
		value, err = d.client.GetElementText(ctx, el.ID)
	} else {
		value, err = d.client.GetElementAttribute(ctx, el.ID, name)
	}
	if err != nil {
		return "", fmt.Errorf("read %q of %s: %w", name, el.Locator.Describe(), classifyError(err))
	}
	return value, nil
}

// WaitPresent implements core.Driver.
func (d *Driver) WaitPresent(ctx context.Context, loc core.Locator) (*core.Element, error) {
	return d.wait(ctx, loc, false)
}

// WaitClickable implements core.Driver.
func (d *Driver) WaitClickable(ctx context.Context, loc core.Locator) (*core.Element, error) {
	return d.wait(ctx, loc, true)
}

// wait polls for loc until it is found (and clickable when requested) or the
// find timeout expires. Only "not found yet" conditions are polled; any other
// server error ends the wait immediately.
func (d *Driver) wait(ctx context.Context, loc core.Locator, clickable bool) (*core.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.findTimeout)
	defer cancel()

	var (
		found   string
		lastErr error
	)
	op := func() error {
		id, err := d.client.FindElement(waitCtx, string(loc.Strategy), loc.Value)
		if err != nil {
			return d.pollError(waitCtx, err, &lastErr)
		}
		if clickable {
			ok, err := d.isClickable(waitCtx, id)
			if err != nil {
				return d.pollError(waitCtx, err, &lastErr)
			}
			if !ok {
				lastErr = core.ErrElementNotClickable
				return lastErr
			}
		}
		found = id
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(d.pollInterval), waitCtx)
	if err := backoff.Retry(op, b); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if waitCtx.Err() == nil {
			return nil, err
		}
		cause := lastErr
		if cause == nil {
			cause = err
		}
		logger.Debug("wait for %s timed out after %s: %v", loc.Describe(), d.findTimeout, cause)
		return nil, core.ErrWaitTimeout.
			WithMessage(fmt.Sprintf("timed out after %s waiting for %s", d.findTimeout, loc.Describe())).
			WithCause(cause).
			WithDetails(map[string]interface{}{
				"locator":   loc.Describe(),
				"clickable": clickable,
			})
	}

	return &core.Element{ID: found, Locator: loc}, nil
}

// pollError decides whether a failed attempt is retried.
func (d *Driver) pollError(ctx context.Context, err error, lastErr *error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	classified := classifyError(err)
	if errors.Is(classified, core.ErrElementNotFound) || errors.Is(classified, core.ErrStaleElement) {
		*lastErr = classified
		return classified
	}
	return backoff.Permanent(classified)
}

func (d *Driver) isClickable(ctx context.Context, id string) (bool, error) {
	displayed, err := d.client.IsElementDisplayed(ctx, id)
	if err != nil || !displayed {
		return false, err
	}
	return d.client.IsElementEnabled(ctx, id)
}

// classifyError maps transport and WebDriver errors to core errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var wdErr *WebDriverError
	if errors.As(err, &wdErr) {
		switch wdErr.Code {
		case codeNoSuchElement:
			return core.ErrElementNotFound.WithCause(err)
		case codeStaleElement:
			return core.ErrStaleElement.WithCause(err)
		case codeInvalidSessionID:
			return core.ErrNoSession.WithCause(err)
		}
		return err
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return core.ErrServerUnreachable.WithCause(err)
	}
	return err
}

func classifySessionError(err error) error {
	classified := classifyError(err)
	if errors.Is(classified, core.ErrServerUnreachable) {
		return classified
	}
	var wdErr *WebDriverError
	if errors.As(err, &wdErr) && wdErr.Code == codeSessionNotCreate {
		return core.ErrSessionNotCreated.
			WithMessage("session not created: " + wdErr.Message).
			WithCause(err)
	}
	return core.ErrSessionNotCreated.WithCause(err)
}

// platformInfo prefers what the server reports over what was requested.
func platformInfo(client *Client, requested map[string]interface{}) core.PlatformInfo {
	accepted := client.Capabilities()
	pick := func(name string) string {
		for _, caps := range []map[string]interface{}{accepted, requested} {
			for _, key := range []string{name, "appium:" + name} {
				if v, ok := caps[key].(string); ok && v != "" {
					return v
				}
			}
		}
		return ""
	}

	info := core.PlatformInfo{
		Platform:   client.Platform(),
		OSVersion:  pick("platformVersion"),
		DeviceName: pick("deviceName"),
		DeviceID:   pick("udid"),
		AppID:      pick("appPackage"),
		Activity:   pick("appActivity"),
		SessionID:  client.SessionID(),
	}
	if info.Platform == "" {
		info.Platform = "android"
	}
	if info.DeviceID == "" {
		info.DeviceID = pick("deviceUDID")
	}
	if info.DeviceID == "" {
		info.DeviceID = info.DeviceName
	}
	return info
}
