package main

import "github.com/AlSimons/graph-ambient-weather/cmd"

func main() {
	cmd.Execute()
}
