package main

import (
	"github.com/dyike/manbo/internal/cli"
)

func main() {
	cli.Run()
}
