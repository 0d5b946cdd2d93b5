package main

import "github.com/papapumpkin/term-coder/cmd"

func main() {
	cmd.Execute()
}
