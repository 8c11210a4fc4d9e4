package main

import "github.com/keywheel/keywheel/internal/cli"

func main() {
	cli.Execute()
}
