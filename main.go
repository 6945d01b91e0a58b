package main

import (
	"CrossFM/cmd"
)

func main() {
	cmd.Execute()
}
