package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetapi/clinic-api/internal/api/metrics"
	"github.com/vetapi/clinic-api/internal/infrastructure/mail"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

type resetJob struct {
	email string
	token string
}

// ResetDispatcher delivers password reset notifications on a fixed set of
// workers. Jobs are sharded by email so one account's notifications go out in
// request order. Enqueueing never blocks the HTTP request: when a worker's
// buffer is full the job is dropped and counted.
type ResetDispatcher struct {
	workers  []chan resetJob
	mailer   mail.Mailer
	resetURL string
	log      zerolog.Logger
}

// NewResetDispatcher creates a dispatcher with numWorkers workers (defaultWorkers when <= 0).
func NewResetDispatcher(numWorkers int, mailer mail.Mailer, resetURL string, log zerolog.Logger) *ResetDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &ResetDispatcher{
		workers:  make([]chan resetJob, numWorkers),
		mailer:   mailer,
		resetURL: resetURL,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan resetJob, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *ResetDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// NotifyPasswordReset implements ports.ResetNotifier.
func (d *ResetDispatcher) NotifyPasswordReset(_ context.Context, email, token string) {
	idx := d.shardIndex(email)
	select {
	case d.workers[idx] <- resetJob{email: email, token: token}:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MailDeliveriesTotal.WithLabelValues("dropped").Inc()
		d.log.Error().Int("worker_id", idx).Msg("reset notification dropped: queue full")
	}
}

func (d *ResetDispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *ResetDispatcher) runWorker(ctx context.Context, id int, ch <-chan resetJob) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, job)
		}
	}
}

func (d *ResetDispatcher) deliver(ctx context.Context, id int, job resetJob) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg, err := mail.ResetMessage(job.email, job.token, d.resetURL)
	if err == nil {
		err = d.mailer.Send(sendCtx, msg)
	}
	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("email", job.email).
			Int("worker_id", id).
			Msg("reset notification failed")
		return
	}
	metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
}
