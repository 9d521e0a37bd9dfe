package main

import "github.com/vibast-solutions/ms-go-connector/cmd"

func main() {
	cmd.Execute()
}
