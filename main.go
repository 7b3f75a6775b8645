package main

import "github.com/opencaselaw/cite/cmd"

func main() {
	cmd.Execute()
}
