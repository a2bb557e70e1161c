package main

import "github.com/synthlab/alphalog/cmd"

func main() {
	cmd.Execute()
}
