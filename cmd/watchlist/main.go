package main

import "github.com/example/watchlist/cmd"

func main() {
	cmd.Execute()
}
