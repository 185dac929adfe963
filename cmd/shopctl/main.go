package main

import "crown_back_end/internal/cli"

func main() {
	cli.Execute()
}
