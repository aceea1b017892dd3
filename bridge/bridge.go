// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bridge

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"context"

	"code.hybscloud.com/xchan"
)

// ToReceiver pumps frames off port, decodes each with decode, and feeds
// them into an xchan channel the rest of the program consumes with
// ordinary Recv/Stream — the cross-context bridge turns an external
// transport into an in-process producer. The returned *errgroup.Group's
// Wait reports the pump goroutine's terminal error; the pump only exits
// with an error, so canceling ctx also yields a non-nil error (port.Recv's
// error, or the send's StatusErr). The receiver observes Disconnected
// once the pump goroutine exits, by way of the sender Close in its defer.
func ToReceiver[T any](ctx context.Context, port Port, capacity int, decode func([]byte) (T, error), log *logrus.Logger) (xchan.Receiver[T], *errgroup.Group) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	tx, rx := xchan.Bounded[T](capacity, xchan.Block)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer tx.Close()
		for {
			frame, err := port.Recv(gctx)
			if err != nil {
				log.WithError(err).Warn("bridge: port recv failed, closing receiver")
				return err
			}
			v, err := decode(frame)
			if err != nil {
				log.WithError(err).WithField("frame_len", len(frame)).Warn("bridge: decode failed, dropping frame")
				continue
			}
			if res := tx.Send(gctx, v); !res.Ok() {
				return xchan.StatusErr(res.Status)
			}
		}
	})
	return rx, g
}
