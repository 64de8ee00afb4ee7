package main

import "duo-journal-backend/cmd"

func main() {
	cmd.Run()
}
