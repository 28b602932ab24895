package main

import "github.com/ruvnet/agentic-security/pkg/cli"

func main() {
	cli.Execute()
}
