package main

import "github.com/tranvictor/carebook/cmd"

func main() {
	cmd.Execute()
}
