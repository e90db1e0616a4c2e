// Command procheckctl is the CLI client for the procheckd daemon.
package main

import "github.com/dantte-lp/procheckd/cmd/procheckctl/commands"

func main() {
	commands.Execute()
}
