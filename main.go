package main

import "github.com/josephlewis42/sshell/cmd"

func main() {
	cmd.Execute()
}
