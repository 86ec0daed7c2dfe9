package main

import (
	"os"

	"github.com/schmitthub/rdsharness/internal/rdsharness"
)

func main() {
	os.Exit(rdsharness.Main())
}
