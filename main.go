package main

import (
	"log"

	mock "github.com/hyperledger-labs/yui-lane-relayer/chains/mock/module"
	"github.com/hyperledger-labs/yui-lane-relayer/cmd"
)

func main() {
	if err := cmd.Execute(
		mock.Module{},
	); err != nil {
		log.Fatal(err)
	}
}
