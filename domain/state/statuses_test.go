package state_test

import (
	"steward/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Statuses", func() {
	Describe("WorkflowStatus", func() {
		It("should treat COMPLETED and CANCELLED as terminal", func() {
			Expect(state.WorkflowPending.IsTerminal()).To(BeFalse())
			Expect(state.WorkflowInProgress.IsTerminal()).To(BeFalse())
			Expect(state.WorkflowCompleted.IsTerminal()).To(BeTrue())
			Expect(state.WorkflowCancelled.IsTerminal()).To(BeTrue())
		})

		It("should allow only the defined transitions", func() {
			Expect(state.WorkflowPending.CanTransitTo(state.WorkflowInProgress)).To(BeTrue())
			Expect(state.WorkflowPending.CanTransitTo(state.WorkflowCompleted)).To(BeTrue())
			Expect(state.WorkflowPending.CanTransitTo(state.WorkflowCancelled)).To(BeTrue())
			Expect(state.WorkflowInProgress.CanTransitTo(state.WorkflowCompleted)).To(BeTrue())
			Expect(state.WorkflowInProgress.CanTransitTo(state.WorkflowCancelled)).To(BeTrue())

			Expect(state.WorkflowInProgress.CanTransitTo(state.WorkflowPending)).To(BeFalse())
			Expect(state.WorkflowCompleted.CanTransitTo(state.WorkflowInProgress)).To(BeFalse())
			Expect(state.WorkflowCompleted.CanTransitTo(state.WorkflowCancelled)).To(BeFalse())
			Expect(state.WorkflowCancelled.CanTransitTo(state.WorkflowCompleted)).To(BeFalse())
		})
	})

	Describe("StepStatus", func() {
		It("should treat COMPLETED and SKIPPED as terminal", func() {
			Expect(state.StepPending.IsTerminal()).To(BeFalse())
			Expect(state.StepInProgress.IsTerminal()).To(BeFalse())
			Expect(state.StepCompleted.IsTerminal()).To(BeTrue())
			Expect(state.StepSkipped.IsTerminal()).To(BeTrue())
		})

		It("should allow only the defined transitions", func() {
			Expect(state.StepPending.CanTransitTo(state.StepInProgress)).To(BeTrue())
			Expect(state.StepPending.CanTransitTo(state.StepSkipped)).To(BeTrue())
			Expect(state.StepInProgress.CanTransitTo(state.StepCompleted)).To(BeTrue())

			Expect(state.StepPending.CanTransitTo(state.StepCompleted)).To(BeFalse())
			Expect(state.StepInProgress.CanTransitTo(state.StepSkipped)).To(BeFalse())
			Expect(state.StepInProgress.CanTransitTo(state.StepPending)).To(BeFalse())
			Expect(state.StepCompleted.CanTransitTo(state.StepInProgress)).To(BeFalse())
			Expect(state.StepSkipped.CanTransitTo(state.StepInProgress)).To(BeFalse())
		})
	})

	Describe("TaskStatus", func() {
		It("should treat COMPLETED and CANCELLED as terminal", func() {
			Expect(state.TaskPending.IsTerminal()).To(BeFalse())
			Expect(state.TaskInProgress.IsTerminal()).To(BeFalse())
			Expect(state.TaskCompleted.IsTerminal()).To(BeTrue())
			Expect(state.TaskCancelled.IsTerminal()).To(BeTrue())
		})

		It("should allow cancellation from both non-terminal statuses", func() {
			Expect(state.TaskPending.CanTransitTo(state.TaskInProgress)).To(BeTrue())
			Expect(state.TaskPending.CanTransitTo(state.TaskCancelled)).To(BeTrue())
			Expect(state.TaskInProgress.CanTransitTo(state.TaskCompleted)).To(BeTrue())
			Expect(state.TaskInProgress.CanTransitTo(state.TaskCancelled)).To(BeTrue())

			Expect(state.TaskPending.CanTransitTo(state.TaskCompleted)).To(BeFalse())
			Expect(state.TaskCompleted.CanTransitTo(state.TaskInProgress)).To(BeFalse())
			Expect(state.TaskCancelled.CanTransitTo(state.TaskInProgress)).To(BeFalse())
		})
	})
})
