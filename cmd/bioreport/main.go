package main

import "github.com/bioreport/bioreport-go/cmd/bioreport/cmd"

func main() {
	cmd.Execute()
}
