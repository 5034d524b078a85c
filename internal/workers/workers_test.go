package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// spyWorker records lifecycle calls into a shared journal so ordering can be
// asserted.
type spyWorker struct {
	name    string
	journal *[]string
}

func (s *spyWorker) Start(context.Context) {
	*s.journal = append(*s.journal, "start "+s.name)
}

func (s *spyWorker) Stop() {
	*s.journal = append(*s.journal, "stop "+s.name)
}

func TestWorkersStartInOrderStopInReverse(t *testing.T) {
	var journal []string

	ws := NewWorkers(
		&spyWorker{name: "monitor", journal: &journal},
		&spyWorker{name: "documents", journal: &journal},
	)
	ws.Add(&spyWorker{name: "templates", journal: &journal})

	ws.Start(context.Background())
	ws.Stop()

	assert.Equal(t, []string{
		"start monitor",
		"start documents",
		"start templates",
		"stop templates",
		"stop documents",
		"stop monitor",
	}, journal)
}

func TestWorkersEmpty(t *testing.T) {
	ws := NewWorkers()

	// Must not panic with nothing registered.
	ws.Start(context.Background())
	ws.Stop()
}
