package main

import "github.com/derickschaefer/tripwise/cmd"

func main() {
	cmd.Execute()
}
