// This program drives a node's mining by calling its mine endpoint on a
// fixed interval.
package main

import "github.com/ardanlabs/minichain/app/tooling/miner/cmd"

func main() {
	cmd.Execute()
}
