package pool

type messageKind uint8

const (
	jobMessage messageKind = iota
	terminateMessage
)

// message is what travels on the job queue: either a task to run or a signal
// for whichever worker receives it to stop.
type message struct {
	kind messageKind
	task Task
}

func newJob(t Task) message {
	return message{kind: jobMessage, task: t}
}

func newTerminate() message {
	return message{kind: terminateMessage}
}

func (m message) String() string {
	switch m.kind {
	case jobMessage:
		return "job"
	case terminateMessage:
		return "terminate"
	default:
		return "unknown"
	}
}
