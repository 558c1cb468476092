package main

import "github.com/jjenkins/camara/cmd"

func main() {
	cmd.Execute()
}
