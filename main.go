package main

import "github.com/scanwell/sbomscan/cmd"

func main() {
	cmd.Execute()
}
