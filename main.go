package main

import "github.com/saadjs/fitflow/cmd/fitflow"

func main() {
	fitflow.Execute()
}
