package main

import "nutriai/cmd"

func main() {
	cmd.Execute()
}
