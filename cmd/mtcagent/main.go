// Command mtcagent runs the MTConnect agent: it loads device-schema
// fixtures, connects to each device's SHDR adapter, and answers
// probe/current/sample/asset queries over HTTP.
package main

import (
	"os"

	"github.com/mtconnect-oss/mtcagent/agent"
)

func main() {
	os.Exit(agent.Run())
}
