// Package deps reports availability of the external binaries the reviewer
// shells out to. The daemon status API and the CLI health command share it
// so the requirements list lives in one place.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the reviewer shells out to.
// Version, when set, is a probe argument (such as "--version") run against
// the resolved binary so availability means "executes", not just "on PATH".
type Requirement struct {
	Name        string
	Command     string
	Description string
	Version     string
	Optional    bool
}

// Status reports the availability of one requirement. Command holds the
// resolved absolute path when the binary was found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the requirements in order and reports one status
// per entry.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}

	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Command = resolved

	if probe := strings.TrimSpace(req.Version); probe != "" {
		out, err := exec.Command(resolved, probe).Output()
		if err != nil {
			status.Detail = fmt.Sprintf("%s %s failed: %v", resolved, probe, err)
			return status
		}
		status.Detail = strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	}

	status.Available = true
	return status
}
