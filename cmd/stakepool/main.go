package main

import (
	"os"

	"solana-stake-desk/cmd/stakepool/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
