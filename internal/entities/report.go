package entities

type RunState string

const (
	StateConfigured RunState = "configured"
	StateListed     RunState = "listed"
	StatePlanned    RunState = "planned"
	StateConfirmed  RunState = "confirmed"
	StateExecuting  RunState = "executing"
	StateReported   RunState = "reported"
	StateAborted    RunState = "aborted"
)

type Outcome struct {
	Payload        *ResubmissionPayload
	IdempotencyKey string
	ReceiptID      string
	Status         string
	Err            error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Report struct {
	RunID    string
	State    RunState
	Listed   int
	Skipped  int
	Plan     []*ResubmissionPayload
	Outcomes []Outcome
}

func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// NothingToDo reports a run that finished without anything to resubmit.
func (r *Report) NothingToDo() bool {
	return r.State == StateReported && len(r.Plan) == 0
}
