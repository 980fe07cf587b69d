// Command vault is the docvault command-line client.
package main

import (
	_ "github.com/joho/godotenv/autoload"

	"docvault/internal/cli"
)

func main() {
	cli.Execute()
}
