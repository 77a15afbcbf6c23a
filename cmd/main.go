package main

import "defect-inspector/internal/api/cli"

func main() {
	cli.Execute()
}
