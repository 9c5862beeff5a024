package main

import (
	"os"

	"github.com/Krish120003/databind/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
