package main

import "github.com/example/marina-booking/cmd"

func main() {
	cmd.Execute()
}
