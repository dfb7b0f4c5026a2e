// Command netsettings-runner checks the Android Network & internet settings
// over Appium and records the results in an xlsx workbook.
package main

import "github.com/devicelab-dev/netsettings-runner/pkg/cli"

func main() {
	cli.Execute()
}
