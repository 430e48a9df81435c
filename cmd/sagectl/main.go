package main

import (
	"github.com/sage3280/tracker/cmd/sagectl/command"
)

func main() {
	command.Execute()
}
