package main

import "github.com/maratig/gcpause/cmd"

func main() {
	cmd.Execute()
}
