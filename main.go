// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/xataio/driftplan/cmd"
	"github.com/xataio/driftplan/pkg/pipeline"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(pipeline.ExitCode(err))
	}
}
