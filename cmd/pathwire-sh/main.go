package main

import (
	"github.com/robotalks/pathwire/pkg/node"
	"github.com/robotalks/pathwire/pkg/shell"
)

//go-build: CGO_ENABLED=0

func init() {
	node.SetupFlags()
}

func main() {
	shell.Main()
}
