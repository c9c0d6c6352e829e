package main

import "github.com/vigneshgithub-coder/Knowledge-Hub-server/cmd"

func main() {
	cmd.Execute()
}
