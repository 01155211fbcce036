package main

import "wallet-suite/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
