package main

import "github.com/MeKo-Tech/qrfeed/cmd/qrfeed/cmd"

func main() {
	cmd.Execute()
}
