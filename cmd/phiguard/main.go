package main

import "github.com/phiguard/phiguard/internal/cli"

func main() {
	cli.Execute()
}
