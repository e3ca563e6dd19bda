package main

import "sharpe.service/commands"

func main() {
	commands.Execute()
}
