package main

import "github.com/deepnoodle-ai/stepcheck/cmd/stepcheck/cli"

func main() {
	cli.Execute()
}
