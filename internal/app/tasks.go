package app

import (
	"context"
	"fmt"

	"github.com/studiowebux/skycli/internal/action"
)

// frameTasks runs detached work on behalf of one frame. Results travel back
// through the sink as TaskDone, so the frame sees them on the event loop.
type frameTasks struct {
	shell *Shell
	frame action.FrameID
}

func (t *frameTasks) Go(op string, fn func(ctx context.Context) (any, error)) {
	s := t.shell
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		res := action.Result{Op: op}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("task crashed", "op", op, "frame", t.frame, "panic", r)
					res.Err = fmt.Errorf("%s crashed: %v", op, r)
				}
			}()
			res.Value, res.Err = fn(s.ctx)
		}()

		if s.ctx.Err() != nil {
			return
		}
		s.sink.Push(action.TaskDone{Frame: t.frame, Result: res})
	}()
}
