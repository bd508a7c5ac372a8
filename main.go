package main

import "github.com/Dusk-Labs/dim-sub002/cmd"

func main() {
	cmd.Execute()
}
