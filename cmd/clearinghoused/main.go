// Command clearinghoused runs the multilateral clearing and settlement
// engine described in the project's spec: a registry of DvP orders,
// payment requests, and PvP swaps, reconciled every settlement interval
// by the phase-ordered netting cycle in package cycle.
package main

import "clearinghouse/internal/cli"

func main() {
	cli.Execute()
}
