package main

import (
	"cardlink/cmd"
)

func main() {
	cmd.Execute()
}
