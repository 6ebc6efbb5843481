package main

import "github.com/charliek/netscope/internal/cli"

func main() {
	cli.Execute()
}
