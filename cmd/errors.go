// SPDX-License-Identifier: Apache-2.0

package cmd

import "errors"

var errNoConfigPath = errors.New("driftplan: --config must point to a pipeline configuration file")
