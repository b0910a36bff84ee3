// Command workspace-governor runs the policy-mediated MCP workspace kernel.
package main

import "github.com/workspace-governor/governor/cmd/workspace-governor/cmd"

func main() {
	cmd.Execute()
}
