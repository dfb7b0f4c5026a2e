// Package netsettings builds the Settings "Network & internet" flow:
// navigation to the carrier page, the data usage readout and the roaming
// toggle.
package netsettings

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
	"github.com/devicelab-dev/netsettings-runner/pkg/flow"
	"github.com/devicelab-dev/netsettings-runner/pkg/logger"
)

// DefaultCarrier is the mobile network entry opened by the carrier step.
const DefaultCarrier = "T-Mobile"

// Step slugs, used in screenshot names.
const (
	StepNetwork  = "network_button"
	StepInternet = "internet_button"
	StepCarrier  = "tmobile_button"
	StepUsage    = "usage_data"
	StepRoaming  = "roaming_toggle"
)

// Attribute names read from elements.
const (
	attrContentDesc = "content-desc"
	attrText        = "text"
	attrChecked     = "checked"
)

// Options configures the flow.
type Options struct {
	Carrier string // Carrier entry label; default T-Mobile
	AppID   string
}

// Flow returns the five-step network settings flow.
func Flow(opts Options) flow.Flow {
	carrier := opts.Carrier
	if carrier == "" {
		carrier = DefaultCarrier
	}
	return flow.Flow{
		Config: flow.Config{Name: "Network & internet", AppID: opts.AppID},
		Steps: []flow.Step{
			{
				Name:         StepNetwork,
				ErrorMessage: "Network & internet page open error",
				Run:          openPage(networkEntry, networkPage, "Network & internet", "Did the Network & internet page open?"),
			},
			{
				Name:         StepInternet,
				ErrorMessage: "Internet page open error",
				Run:          openPage(internetItem, internetPage, "Internet", "Did the Internet page open?"),
			},
			{
				Name:         StepCarrier,
				ErrorMessage: carrier + " page open error",
				Run:          openCarrier(carrier),
			},
			{
				Name:         StepUsage,
				ErrorMessage: "Data usage check error",
				Run:          readDataUsage,
			},
			{
				Name:         StepRoaming,
				ErrorMessage: "Roaming setting error",
				Run:          toggleRoaming,
			},
		},
	}
}

// openPage clicks entry and checks that the page titled want is shown.
func openPage(entry, page core.Locator, want, desc string) flow.RunFunc {
	return func(ctx context.Context, d core.Driver) (flow.Outcome, error) {
		el, err := d.WaitClickable(ctx, entry)
		if err != nil {
			return flow.Outcome{}, err
		}
		if err := d.Click(ctx, el); err != nil {
			return flow.Outcome{}, err
		}
		return checkPage(ctx, d, page, want, desc)
	}
}

func checkPage(ctx context.Context, d core.Driver, page core.Locator, want, desc string) (flow.Outcome, error) {
	title, err := d.WaitPresent(ctx, page)
	if err != nil {
		return flow.Outcome{}, err
	}
	got, err := d.Attribute(ctx, title, attrContentDesc)
	if err != nil {
		return flow.Outcome{}, err
	}
	logger.Debug("page %s content-desc=%q", page.Describe(), got)
	return flow.Check(desc, got, want), nil
}

// openCarrier verifies the carrier entry label, then opens its settings.
func openCarrier(carrier string) flow.RunFunc {
	return func(ctx context.Context, d core.Driver) (flow.Outcome, error) {
		item, err := d.WaitPresent(ctx, carrierItem(carrier))
		if err != nil {
			return flow.Outcome{}, err
		}
		label, err := d.Attribute(ctx, item, attrText)
		if err != nil {
			return flow.Outcome{}, err
		}
		if label != carrier {
			logger.Warn("carrier entry reads %q, want %q", label, carrier)
			return flow.Fail(carrier + " button text check failed"), nil
		}

		gear, err := d.WaitClickable(ctx, carrierGear)
		if err != nil {
			return flow.Outcome{}, err
		}
		if err := d.Click(ctx, gear); err != nil {
			return flow.Outcome{}, err
		}
		return checkPage(ctx, d, carrierPage(carrier), carrier, fmt.Sprintf("Did the %s page open?", carrier))
	}
}

// readDataUsage records the data usage summary text as the result cell.
func readDataUsage(ctx context.Context, d core.Driver) (flow.Outcome, error) {
	el, err := d.WaitPresent(ctx, dataUsage)
	if err != nil {
		return flow.Outcome{}, err
	}
	usage, err := d.Attribute(ctx, el, attrText)
	if err != nil {
		return flow.Outcome{}, err
	}
	return flow.Text("Data usage", usage), nil
}

// toggleRoaming flips the roaming switch and checks the new state.
// Turning roaming on raises a confirmation dialog.
func toggleRoaming(ctx context.Context, d core.Driver) (flow.Outcome, error) {
	label, err := d.WaitPresent(ctx, roamingLabel)
	if err != nil {
		return flow.Outcome{}, err
	}
	if _, err := d.Attribute(ctx, label, attrText); err != nil {
		return flow.Outcome{}, err
	}

	state, err := d.WaitPresent(ctx, roamingState)
	if err != nil {
		return flow.Outcome{}, err
	}
	before, err := d.Attribute(ctx, state, attrChecked)
	if err != nil {
		return flow.Outcome{}, err
	}

	sw, err := d.WaitClickable(ctx, roamingSwitch)
	if err != nil {
		return flow.Outcome{}, err
	}
	if err := d.Click(ctx, sw); err != nil {
		return flow.Outcome{}, err
	}

	if before == "true" {
		after, err := d.Attribute(ctx, state, attrChecked)
		if err != nil {
			return flow.Outcome{}, err
		}
		return flow.Check("Did roaming change from On to Off?", after, "false"), nil
	}

	if err := confirmDialog(ctx, d); err != nil {
		return flow.Outcome{}, err
	}
	after, err := d.Attribute(ctx, state, attrChecked)
	if err != nil {
		return flow.Outcome{}, err
	}
	return flow.Check("Did roaming change from Off to On?", after, "true"), nil
}

// confirmDialog accepts the roaming charges alert.
func confirmDialog(ctx context.Context, d core.Driver) error {
	title, err := d.WaitPresent(ctx, alertTitle)
	if err != nil {
		return err
	}
	text, err := d.Attribute(ctx, title, attrText)
	if err != nil {
		return err
	}
	logger.Info("roaming dialog: %s", text)

	ok, err := d.WaitClickable(ctx, alertConfirm)
	if err != nil {
		return err
	}
	return d.Click(ctx, ok)
}
