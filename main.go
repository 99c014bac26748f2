package main

import "alabs.org/doorbell-bridge/cli_commands"

func main() {
	cli_commands.Execute()
}
