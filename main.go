package main

import "github.com/cytokineking/germinal/cmd"

func main() {
	cmd.Execute() // initialize cobra commands
}
