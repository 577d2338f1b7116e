package main

import "github.com/naka-gawa/github-star-badge/cmd"

func main() {
	cmd.Execute()
}
