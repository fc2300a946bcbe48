// Package banner renders the CLI banner.
package banner

import "fmt"

const art = `
  _    _       _
 | |  (_)_ __ | |_ ___ _ __
 | '_ \| | '_ \| __/ _ \ '__|
 | | | | | | | | ||  __/ |
 |_| |_|_|_| |_|\__\___|_|
`

// Banner returns the banner with the version line.
func Banner(version string) string {
	return fmt.Sprintf("%s\n  adaptive labeling hints  %s\n\n", art, version)
}
