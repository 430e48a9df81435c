package main

import (
	"github.com/sage3280/tracker/api"
)

func main() {
	api.MainLoop()
}
