// Package banner renders the CLI startup banner.
package banner

import "fmt"

// Banner returns the startup banner for the given version.
func Banner(version string) string {
	return fmt.Sprintf(`
 _
| |__   ___   __ _  __ _
| '_ \ / _ \ / _`+"`"+` |/ _`+"`"+` |
| |_) | (_) | (_| | (_| |
|_.__/ \___/ \__, |\__,_|
                |_|

Bayesian ontology query engine %s

`, version)
}
