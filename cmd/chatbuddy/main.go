// The chatbuddy binary is the operator CLI: offline message analysis,
// template ranking, and import-file validation.
package main

import "github.com/faisalsajibwp/fiverr-chat-buddy/internal/interfaces/cli"

func main() {
	cli.Execute()
}
