package main

import "hrty-backend/cmd/hrty/command"

func main() {
	command.Execute()
}
