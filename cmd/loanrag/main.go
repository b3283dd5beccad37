package main

import "loanrag/internal/cli"

func main() {
	cli.Execute()
}
