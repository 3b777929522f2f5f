package main

import "github.com/bcdannyboy/stochsim/cli"

func main() {
	cli.Execute()
}
