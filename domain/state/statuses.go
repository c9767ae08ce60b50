package state

// The three status machines are fixed: only statuses mutate after an
// instance is created, and no transition other than the ones listed here is
// ever written to storage.

type WorkflowStatus string
type StepStatus string
type TaskStatus string

const (
	WorkflowPending    = WorkflowStatus("PENDING")
	WorkflowInProgress = WorkflowStatus("IN_PROGRESS")
	WorkflowCompleted  = WorkflowStatus("COMPLETED")
	WorkflowCancelled  = WorkflowStatus("CANCELLED")

	StepPending    = StepStatus("PENDING")
	StepInProgress = StepStatus("IN_PROGRESS")
	StepCompleted  = StepStatus("COMPLETED")
	StepSkipped    = StepStatus("SKIPPED")

	TaskPending    = TaskStatus("PENDING")
	TaskInProgress = TaskStatus("IN_PROGRESS")
	TaskCompleted  = TaskStatus("COMPLETED")
	TaskCancelled  = TaskStatus("CANCELLED")
)

type transition struct {
	From string
	To   string
}

var workflowTransitions = []transition{
	{string(WorkflowPending), string(WorkflowInProgress)},
	{string(WorkflowPending), string(WorkflowCompleted)},
	{string(WorkflowInProgress), string(WorkflowCompleted)},
	{string(WorkflowPending), string(WorkflowCancelled)},
	{string(WorkflowInProgress), string(WorkflowCancelled)},
}

var stepTransitions = []transition{
	{string(StepPending), string(StepInProgress)},
	{string(StepInProgress), string(StepCompleted)},
	{string(StepPending), string(StepSkipped)},
}

var taskTransitions = []transition{
	{string(TaskPending), string(TaskInProgress)},
	{string(TaskInProgress), string(TaskCompleted)},
	{string(TaskPending), string(TaskCancelled)},
	{string(TaskInProgress), string(TaskCancelled)},
}

func allows(transitions []transition, from, to string) bool {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowCompleted || s == WorkflowCancelled
}
func (s WorkflowStatus) CanTransitTo(to WorkflowStatus) bool {
	return allows(workflowTransitions, string(s), string(to))
}

func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepSkipped
}
func (s StepStatus) CanTransitTo(to StepStatus) bool {
	return allows(stepTransitions, string(s), string(to))
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}
func (s TaskStatus) CanTransitTo(to TaskStatus) bool {
	return allows(taskTransitions, string(s), string(to))
}
