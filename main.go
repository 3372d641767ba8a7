package main

import "github.com/nca-tools/nca-cli/cmd"

// execCmd is swappable in tests.
var execCmd = cmd.Execute

func main() {
	execCmd()
}
