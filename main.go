package main

import (
	"github.com/twitboost/twitboost-api/cmd"
)

func main() {
	cmd.Execute()
}
