package main

import "github.com/oshokin/release-button/cmd/release-sync/cmd"

func main() {
	cmd.Execute()
}
