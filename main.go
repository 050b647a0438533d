package main

import "github.com/mibikit/cellprep/cmd"

func main() {
	cmd.Execute()
}
