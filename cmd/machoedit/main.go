package main

import "github.com/go-macho-tools/machoedit/cmd/machoedit/cmd"

func main() {
	cmd.Execute()
}
