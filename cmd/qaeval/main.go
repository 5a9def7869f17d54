// cmd/qaeval/main.go
package main

import (
	cmd "github.com/mwiater/qaeval/internal/cli"
)

// main starts the qaeval CLI by delegating to the cobra root command.
func main() {
	cmd.Execute()
}
