package announcer

import (
	"context"

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ------------------------
// Fake Sink
// ------------------------

type FakeSink struct {
	posted []osuvsdomain.Announcement

	PostFunc func(ctx context.Context, a osuvsdomain.Announcement) error
}

func (f *FakeSink) Post(ctx context.Context, a osuvsdomain.Announcement) error {
	f.posted = append(f.posted, a)
	if f.PostFunc != nil {
		return f.PostFunc(ctx, a)
	}
	return nil
}

var _ Sink = (*FakeSink)(nil)

// ------------------------
// Fake JobInserter
// ------------------------

type FakeInserter struct {
	args []river.JobArgs
	opts []*river.InsertOpts

	InsertFunc func(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

func (f *FakeInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	f.args = append(f.args, args)
	f.opts = append(f.opts, opts)
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, args, opts)
	}
	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(f.args))}}, nil
}

var _ JobInserter = (*FakeInserter)(nil)
