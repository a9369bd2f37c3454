// Command trialsim simulates platform trials under several randomization
// methods and reports covariate imbalance and predictability.
package main

import "github.com/sarchlab/trialsim/trialsim/cmd"

func main() {
	cmd.Execute()
}
