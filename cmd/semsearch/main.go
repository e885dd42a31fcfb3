package main

import "github.com/poppart-mac/smartcomponents/internal/cli"

func main() {
	cli.Execute()
}
