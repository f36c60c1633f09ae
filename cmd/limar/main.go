// Command limar is the CLI entrypoint.
package main

import "github.com/papapumpkin/limar/cmd"

func main() {
	cmd.Execute()
}
