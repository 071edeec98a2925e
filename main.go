package main

import "room-availability/cmd"

func main() {
	cmd.Execute()
}
