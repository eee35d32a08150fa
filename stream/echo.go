package stream

import (
	"context"
	"net"
	"time"

	"github.com/momentics/hioload-mw/api"
	"github.com/momentics/hioload-mw/pool"
)

// EchoService writes everything it reads back to the same connection and
// returns the number of bytes echoed. Cancelling the call context unblocks
// the copy by expiring the connection deadline.
type EchoService[S any] struct{}

// NewEchoService creates the service.
func NewEchoService[S any]() EchoService[S] {
	return EchoService[S]{}
}

// Serve implements api.Service.
func (EchoService[S]) Serve(ctx api.Context[S], conn net.Conn) (int64, error) {
	stop := context.AfterFunc(ctx.Ctx(), func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	n, err := pool.Default.Copy(conn, conn)
	if err != nil && ctx.Ctx().Err() != nil {
		return n, ctx.Ctx().Err()
	}
	return n, err
}
