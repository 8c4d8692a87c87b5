package main

import "github.com/glowcircle/glow/internal/cli"

func main() {
	cli.Execute()
}
