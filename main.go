package main

import "github.com/betagouv/grist-core/cmd"

func main() {
	cmd.Execute()
}
