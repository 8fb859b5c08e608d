package main

import "github.com/vietddude/merchantloader/internal/cli"

func main() {
	cli.Execute()
}
