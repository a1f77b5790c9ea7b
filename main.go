package main

import "github.com/lepinkainen/coce/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
