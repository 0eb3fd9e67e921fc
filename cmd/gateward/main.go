package main

import "github.com/gateward/gateward/internal/cli"

func main() {
	cli.Execute()
}
