package main

import "github.com/oshokin/release-button/cmd/release-publish/cmd"

func main() {
	cmd.Execute()
}
