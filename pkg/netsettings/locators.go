package netsettings

import (
	"fmt"

	"github.com/devicelab-dev/netsettings-runner/pkg/core"
)

// Settings app resource ids.
const (
	dataUsageViewID = "com.android.settings:id/data_usage_view"
	switchWidgetID  = "android:id/switch_widget"
	alertTitleID    = "android:id/alertTitle"
	positiveButton  = "android:id/button1"
)

// roamingSwitchIndex is the 1-based position of the roaming switch among
// the switch widgets on the carrier page.
const roamingSwitchIndex = 3

var (
	networkEntry = core.UiText("Network & internet")
	networkPage  = core.AccessibilityID("Network & internet")
	internetItem = core.UiText("Internet")
	internetPage = core.AccessibilityID("Internet")
	carrierGear  = core.AccessibilityID("Settings")
	dataUsage    = core.ResourceID(dataUsageViewID)
	roamingLabel = core.XPath(`//*[@text="Roaming"]`)
	roamingState = core.XPath(fmt.Sprintf(`(//*[@resource-id=%q])[%d]`, switchWidgetID, roamingSwitchIndex))
	alertTitle   = core.ResourceID(alertTitleID)
	alertConfirm = core.ResourceID(positiveButton)
)

// roamingSwitch is the same switch addressed through UiAutomator, whose
// instance index is 0-based.
var roamingSwitch = core.UiSelector(fmt.Sprintf(`new UiSelector().resourceId(%q).instance(%d)`, switchWidgetID, roamingSwitchIndex-1))

func carrierItem(carrier string) core.Locator { return core.UiText(carrier) }

func carrierPage(carrier string) core.Locator { return core.AccessibilityID(carrier) }
