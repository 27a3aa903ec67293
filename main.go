// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"

	"leopold/cmd"
	"leopold/pkg/build"
)

func main() {
	build.Initialize()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", build.Get().Name, err)
		os.Exit(1)
	}
}
