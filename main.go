package main

import "slide-extractor/cmd"

func main() {
	cmd.Execute()
}
