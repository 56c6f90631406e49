// Command gpm provisions GitHub project boards, milestones, branches and
// issues from a weekly plan.
package main

import (
	"os"

	"github.com/WomB0ComB0/git-project-management/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
