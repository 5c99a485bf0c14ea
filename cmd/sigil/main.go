/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/sigil/cmd/sigil/cmd"
)

func main() {
	cmd.Execute()
}
