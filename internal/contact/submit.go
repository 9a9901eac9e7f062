package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ChocoStore/pkg/kit"
)

const DefaultDelay = 1500 * time.Millisecond

type Receipt struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
}

// Submitter accepts contact messages. Delivery is simulated: the message is
// logged after a fixed delay and nothing leaves the process.
type Submitter struct {
	delay time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewSubmitter(delay time.Duration, log *zap.Logger) *Submitter {
	if delay < 0 {
		delay = 0
	}
	return &Submitter{
		delay: delay,
		log:   kit.OrNop(log),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Submitter) Submit(ctx context.Context, f Form) (Receipt, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Receipt{}, err
	}

	t := time.NewTimer(s.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-t.C:
	}

	r := Receipt{ID: uuid.NewString(), ReceivedAt: s.now()}
	s.log.Info("contact message received",
		zap.String("receipt", r.ID),
		zap.String("subject", f.Subject),
		zap.String("email", f.Email),
		zap.Int("message_len", len(f.Message)),
	)
	return r, nil
}
