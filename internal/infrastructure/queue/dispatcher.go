package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/referralhq/referral-api/internal/api/metrics"
	"github.com/referralhq/referral-api/internal/infrastructure/sms"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Message is one pending SMS delivery.
type Message struct {
	Phone int64
	Code  string
}

// Dispatcher fans SMS deliveries out to a fixed set of workers, sharded by
// phone so repeated codes for the same number stay ordered. Send never
// blocks the registration request and never reports failure to it: delivery
// is strictly best-effort.
type Dispatcher struct {
	workers  []chan Message
	provider sms.Provider
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, provider sms.Provider, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan Message, numWorkers),
		provider: provider,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send implements ports.Notifier. A full worker channel drops the message:
// losing a code only forces the user to re-register, which is cheaper than
// stalling the request path.
func (d *Dispatcher) Send(phone int64, code string) {
	idx := d.shardIndex(phone)
	select {
	case d.workers[idx] <- Message{Phone: phone, Code: code}:
		metrics.SMSEnqueuedTotal.Inc()
		metrics.SMSQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.SMSDroppedTotal.Inc()
		d.log.Warn().Int64("phone", phone).Int("worker_id", idx).Msg("sms queue full, message dropped")
	}
}

// shardIndex maps a phone deterministically to a worker index.
func (d *Dispatcher) shardIndex(phone int64) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d", phone)
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Message) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.SMSQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
			if err := d.provider.Send(ctx, msg.Phone, msg.Code); err != nil {
				d.log.Error().Err(err).
					Int64("phone", msg.Phone).
					Int("worker_id", id).
					Msg("sms delivery failed")
			}
		}
	}
}
