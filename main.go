package main

import "consultbot/cmd"

func main() {
	cmd.Execute()
}
