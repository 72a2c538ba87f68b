package main

import (
	"os"

	"github.com/tobsdb/tdbview/pkg"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pkg.ErrorLog(err)
		os.Exit(1)
	}
}
