package main

import "github.com/slotcarhq/auctionhouse/cmd"

func main() {
	cmd.Execute()
}
