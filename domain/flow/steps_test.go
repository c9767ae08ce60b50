package flow_test

import (
	"steward/bizerror"
	"steward/domain"
	"steward/domain/flow"
	"steward/domain/state"
	"steward/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestStartStep(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return not found for an unknown step", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		step, err := flow.StartStep(404, testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("should start the first step without wait time and start the workflow with it", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)
		step, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())
		Expect(step.Status).To(Equal(state.StepInProgress))
		Expect(step.BeginTime.IsZero()).To(BeFalse())
		Expect(step.WaitTimeMinutes).To(BeNil())

		found, err := flow.DetailInstance(detail.ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())
		Expect(found.Status).To(Equal(state.WorkflowInProgress))
	})

	t.Run("should refuse to start a step while an earlier step is not terminal", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)
		step, err := flow.StartStep(detail.Steps[1].ID, testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		preconditionErr, ok := err.(*bizerror.PreconditionFailedError)
		Expect(ok).To(BeTrue())
		Expect(preconditionErr.WorkflowID).To(Equal(detail.ID))
		Expect(preconditionErr.StepIDs).To(Equal([]types.ID{detail.Steps[0].ID}))
	})

	t.Run("should refuse to start a step which is not pending", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)
		_, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())

		step, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidState))
	})

	t.Run("should let exactly one of two concurrent starts win", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)

		begin := make(chan struct{})
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				<-begin
				_, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
				errs <- err
			}()
		}
		close(begin)

		var winners, losers int
		for i := 0; i < 2; i++ {
			err := <-errs
			if err == nil {
				winners++
			} else {
				Expect(err == bizerror.ErrInvalidState || err == bizerror.ErrConflict).To(BeTrue())
				losers++
			}
		}
		Expect(winners).To(Equal(1))
		Expect(losers).To(Equal(1))

		found, err := flow.DetailInstance(detail.ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())
		Expect(found.Steps[0].Status).To(Equal(state.StepInProgress))
		Expect(found.Steps[0].BeginTime.IsZero()).To(BeFalse())
	})

	t.Run("should record zero wait time when the previous step just ended", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		assignee := testinfra.BuildSession(20, "member_1")
		detail := buildInstance("move in", 1, 20)

		_, err := flow.StartStep(detail.Steps[0].ID, assignee)
		Expect(err).To(BeNil())
		for _, task := range detail.Steps[0].Tasks {
			_, err = flow.CancelTask(task.ID, admin)
			Expect(err).To(BeNil())
		}
		_, err = flow.CompleteStep(detail.Steps[0].ID, "", assignee)
		Expect(err).To(BeNil())

		step, err := flow.StartStep(detail.Steps[1].ID, assignee)
		Expect(err).To(BeNil())
		Expect(step.WaitTimeMinutes).ToNot(BeNil())
		Expect(*step.WaitTimeMinutes).To(Equal(int64(0)))
	})

	t.Run("should leave wait time unset after a skipped previous step", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		detail := buildInstance("move in", 1, 20)
		_, err := flow.SkipStep(detail.Steps[0].ID, admin)
		Expect(err).To(BeNil())

		step, err := flow.StartStep(detail.Steps[1].ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())
		Expect(step.Status).To(Equal(state.StepInProgress))
		Expect(step.WaitTimeMinutes).To(BeNil())
	})

	t.Run("should refuse to start steps of a terminal workflow", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		detail := buildInstance("move in", 1, 20)
		_, err := flow.CancelWorkflow(detail.ID, admin)
		Expect(err).To(BeNil())

		step, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidState))
	})
}

func TestCompleteStep(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should refuse to complete a step which is not in progress", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)
		step, err := flow.CompleteStep(detail.Steps[0].ID, "", testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidState))
	})

	t.Run("should report every non-terminal task when completion is premature", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		assignee := testinfra.BuildSession(20, "member_1")
		detail := buildInstance("move in", 1, 20)
		_, err := flow.StartStep(detail.Steps[0].ID, assignee)
		Expect(err).To(BeNil())

		step, err := flow.CompleteStep(detail.Steps[0].ID, "", assignee)
		Expect(step).To(BeNil())
		tasksErr, ok := err.(*bizerror.TasksIncompleteError)
		Expect(ok).To(BeTrue())
		Expect(tasksErr.StepID).To(Equal(detail.Steps[0].ID))
		Expect(tasksErr.TaskIDs).To(ConsistOf(detail.Steps[0].Tasks[0].ID, detail.Steps[0].Tasks[1].ID))
	})

	t.Run("should complete with duration and notes once tasks are terminal", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		assignee := testinfra.BuildSession(20, "member_1")
		detail := buildInstance("move in", 1, 20)
		_, err := flow.StartStep(detail.Steps[0].ID, assignee)
		Expect(err).To(BeNil())

		_, err = flow.StartTask(detail.Steps[0].Tasks[0].ID, assignee)
		Expect(err).To(BeNil())
		_, err = flow.CompleteTask(detail.Steps[0].Tasks[0].ID, &domain.CompleteTaskRequest{WorkDone: "done"}, assignee)
		Expect(err).To(BeNil())
		_, err = flow.CancelTask(detail.Steps[0].Tasks[1].ID, admin)
		Expect(err).To(BeNil())

		step, err := flow.CompleteStep(detail.Steps[0].ID, "all set", assignee)
		Expect(err).To(BeNil())
		Expect(step.Status).To(Equal(state.StepCompleted))
		Expect(step.EndTime.IsZero()).To(BeFalse())
		Expect(step.DurationMinutes).ToNot(BeNil())
		Expect(*step.DurationMinutes).To(Equal(int64(0)))
		Expect(step.Notes).To(Equal("all set"))

		// completing again is an invalid transition
		step, err = flow.CompleteStep(detail.Steps[0].ID, "", assignee)
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidState))
	})
}

func TestSkipStep(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should be forbidden to non-admins", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail := buildInstance("move in", 1, 20)
		step, err := flow.SkipStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should skip a pending step without timestamps", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		detail := buildInstance("move in", 1, 20)
		step, err := flow.SkipStep(detail.Steps[0].ID, admin)
		Expect(err).To(BeNil())
		Expect(step.Status).To(Equal(state.StepSkipped))
		Expect(step.BeginTime.IsZero()).To(BeTrue())
		Expect(step.EndTime.IsZero()).To(BeTrue())
	})

	t.Run("should refuse to skip a step in progress", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		admin := testinfra.BuildSession(1, "system:admin")
		detail := buildInstance("move in", 1, 20)
		_, err := flow.StartStep(detail.Steps[0].ID, testinfra.BuildSession(10))
		Expect(err).To(BeNil())

		step, err := flow.SkipStep(detail.Steps[0].ID, admin)
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidState))
	})
}
