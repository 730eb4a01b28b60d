// Command taskpanel is the Miss_TaskMaster side panel.
package main

import (
	"os"

	"github.com/Iron-Ham/taskpanel/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
