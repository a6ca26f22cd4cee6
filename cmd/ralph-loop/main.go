// Command ralph-loop keeps an AI coding agent working on one goal across
// turns through the runtime's Stop hook.
package main

import (
	"os"

	"github.com/schmitthub/ralphloop/internal/ralphloop"
)

func main() {
	os.Exit(ralphloop.Main())
}
