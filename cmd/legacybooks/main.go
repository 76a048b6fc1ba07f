package main

import "github.com/vietddude/legacybooks/internal/cli"

func main() {
	cli.Execute()
}
