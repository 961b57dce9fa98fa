package main

import (
	"github.com/page-harvest/harvest/internal/cli"
)

func main() {
	cli.Execute()
}
