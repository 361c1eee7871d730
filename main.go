// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/refbridge/refbridge/cmd/refbridge"

func main() {
	cmd.Execute()
}
