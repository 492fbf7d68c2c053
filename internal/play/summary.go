package play

import (
	"fmt"
	"io"
	"sort"

	"github.com/apenella/go-ansible/pkg/stdoutcallback/results"
	"github.com/fatih/color"
)

// Task statuses, most severe first.
const (
	StatusUnreachable = "unreachable"
	StatusFailed      = "failed"
	StatusSkipped     = "skipped"
	StatusChanged     = "changed"
	StatusOK          = "ok"
)

// TaskResult is one task's result on one host.
type TaskResult struct {
	Play    string
	Task    string
	Host    string
	Status  string
	Message string
}

// HostStats is the recap line ansible prints for a host.
type HostStats struct {
	Host        string
	OK          int
	Changed     int
	Failures    int
	Skipped     int
	Unreachable int
}

// Summary is the parsed outcome of a playbook run.
type Summary struct {
	Tasks []TaskResult
	Hosts []HostStats
}

// Failed reports whether any host failed or was unreachable.
func (s *Summary) Failed() bool {
	for _, h := range s.Hosts {
		if h.Failures > 0 || h.Unreachable > 0 {
			return true
		}
	}
	for _, t := range s.Tasks {
		if t.Status == StatusFailed || t.Status == StatusUnreachable {
			return true
		}
	}
	return false
}

// ParseSummary reads the json stdout callback output.
func ParseSummary(r io.Reader) (*Summary, error) {
	res, err := results.ParseJSONResultsStream(r)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, play := range res.Plays {
		playName := ""
		if play.Play != nil {
			playName = play.Play.Name
		}
		for _, task := range play.Tasks {
			taskName := ""
			if task.Task != nil {
				taskName = task.Task.Name
			}
			for _, host := range sortedKeys(task.Hosts) {
				item := task.Hosts[host]
				if item == nil {
					continue
				}
				result := TaskResult{Play: playName, Task: taskName, Host: host, Status: StatusOK}
				switch {
				case item.Unreachable:
					result.Status = StatusUnreachable
				case item.Failed:
					result.Status = StatusFailed
				case item.Skipped:
					result.Status = StatusSkipped
					result.Message = item.SkipReason
				case item.Changed:
					result.Status = StatusChanged
				}
				if msg := fmt.Sprint(item.Msg); result.Message == "" && msg != "" && msg != "<nil>" {
					result.Message = msg
				}
				summary.Tasks = append(summary.Tasks, result)
			}
		}
	}

	for _, host := range sortedKeys(res.Stats) {
		st := res.Stats[host]
		if st == nil {
			continue
		}
		summary.Hosts = append(summary.Hosts, HostStats{
			Host:        host,
			OK:          st.Ok,
			Changed:     st.Changed,
			Failures:    st.Failures,
			Skipped:     st.Skipped,
			Unreachable: st.Unreachable,
		})
	}
	return summary, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fprint writes the task lines followed by the recap.
func (s *Summary) Fprint(w io.Writer) {
	currentPlay := ""
	for i, t := range s.Tasks {
		if i == 0 || t.Play != currentPlay {
			currentPlay = t.Play
			fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint("PLAY"), t.Play)
		}
		line := fmt.Sprintf("  %-12s %s: %s", statusLabel(t.Status), t.Host, t.Task)
		if t.Message != "" && t.Status != StatusOK {
			line += " (" + t.Message + ")"
		}
		fmt.Fprintln(w, line)
	}

	if len(s.Hosts) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("RECAP"))
	for _, h := range s.Hosts {
		fmt.Fprintf(w, "  %-20s ok=%d changed=%d failed=%d skipped=%d unreachable=%d\n",
			h.Host, h.OK, h.Changed, h.Failures, h.Skipped, h.Unreachable)
	}
}

func statusLabel(status string) string {
	label := "[" + status + "]"
	switch status {
	case StatusOK:
		return color.GreenString(label)
	case StatusChanged:
		return color.YellowString(label)
	case StatusSkipped:
		return color.CyanString(label)
	default:
		return color.RedString(label)
	}
}
