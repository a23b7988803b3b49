package main

import "github.com/xrsl/cvago/cmd"

func main() {
	cmd.Execute()
}
