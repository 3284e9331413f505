// Command classdrift measures the evolution of Java class structure across releases.
package main

import (
	"os"

	"github.com/huangsam/classdrift/cmd"
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogWarn("Command failed", err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
