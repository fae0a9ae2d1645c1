package main

import (
	"os"

	"github.com/golang/glog"
)

//go-build: CGO_ENABLED=0

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
