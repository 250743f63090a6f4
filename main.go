package main

import "msgsync/cmd"

func main() {
	cmd.Execute()
}
