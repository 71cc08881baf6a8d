package main

import "github.com/liamg/netscan/cmd"

func main() {
	cmd.Execute()
}
