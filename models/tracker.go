package models

// TrackerStatus は Jira のチケット照会結果
type TrackerStatus int

const (
	TrackerStatusOpen TrackerStatus = iota
	TrackerStatusDone
	TrackerStatusNotFound
)

func (s TrackerStatus) String() string {
	switch s {
	case TrackerStatusOpen:
		return "open"
	case TrackerStatusDone:
		return "done"
	case TrackerStatusNotFound:
		return "not_found"
	}
	return "unknown"
}
