// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command msqcheck runs validation workloads against the msq queue and
// stack and reports lost, duplicated or phantom items.
//
// Usage:
//
//	msqcheck run [flags]
//
// The exit status is 1 if the workload observed a violation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := cmdRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "msqcheck:", err)
		os.Exit(1)
	}
}
