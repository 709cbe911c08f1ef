package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/logdeck/internal/jobmon"
	"github.com/five82/logdeck/internal/present"
	"github.com/five82/logdeck/internal/reportapi"
)

// WatchOptions configure a headless job watch.
type WatchOptions struct {
	Interval time.Duration
	// Out receives job output and the final report list.
	Out io.Writer
	// Progress receives the spinner; nil disables it.
	Progress io.Writer
}

// Generate starts report generation for logName on server and follows the job
// until it reaches a terminal state.
func Generate(ctx context.Context, client reportapi.API, server, logName string, opts WatchOptions) (jobmon.Session, error) {
	w := newWatcher(client, opts)
	return w.run(ctx, w.monitor.Confirm(server, logName))
}

// Watch follows a report that is already being generated.
func Watch(ctx context.Context, client reportapi.API, server, report string, opts WatchOptions) (jobmon.Session, error) {
	w := newWatcher(client, opts)
	return w.run(ctx, w.monitor.Reenter(server, report))
}

type watcher struct {
	client  reportapi.API
	monitor *jobmon.Monitor
	out     io.Writer
	bar     *progressbar.ProgressBar

	printed    string
	lineOpen   bool // last write did not end a line
	outputOpen bool // cursor sits at the end of the printed output
	lastErr  string
	failure  error
}

func newWatcher(client reportapi.API, opts WatchOptions) *watcher {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	w := &watcher{
		client:  client,
		monitor: jobmon.New(jobmon.WithInterval(opts.Interval)),
		out:     out,
	}
	if opts.Progress != nil {
		w.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Generating report"),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return w
}

// run is the watcher's single event loop. Effects that need I/O or time run
// on goroutines and report back over events; the monitor itself is only
// touched here.
func (w *watcher) run(parent context.Context, initial []jobmon.Effect) (jobmon.Session, error) {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	defer w.finishBar()

	events := make(chan jobmon.Event)
	dispatch := func(effects []jobmon.Effect) {
		for _, eff := range effects {
			w.execute(ctx, &wg, events, eff)
		}
	}

	dispatch(initial)
	for {
		if done, sess := w.terminal(); done {
			return sess, w.result(sess)
		}
		select {
		case <-parent.Done():
			sess, _ := w.monitor.Close()
			return sess, parent.Err()
		case ev := <-events:
			if w.monitor.IsStale(ev) {
				slog.Debug("dropping stale job event", "event", fmt.Sprintf("%T", ev))
				continue
			}
			effects := w.monitor.Deliver(ev)
			w.render()
			dispatch(effects)
		}
	}
}

// terminal reports whether the loop is over. A failed start leaves the
// monitor idle with the failure recorded by a Notify effect.
func (w *watcher) terminal() (bool, jobmon.Session) {
	sess, ok := w.monitor.Session()
	if !ok {
		return true, sess
	}
	return sess.State.Terminal(), sess
}

// result is the error a finished watch reports. Only a failed job or a
// start that never produced a session counts; a rejected stop that was
// followed by completion does not.
func (w *watcher) result(sess jobmon.Session) error {
	if sess.ID == uuid.Nil || sess.State == jobmon.Failed {
		return w.failure
	}
	return nil
}

func (w *watcher) execute(ctx context.Context, wg *sync.WaitGroup, events chan<- jobmon.Event, eff jobmon.Effect) {
	send := func(ev jobmon.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	switch eff := eff.(type) {
	case jobmon.StartJob, jobmon.Poll, jobmon.StopJob:
		wg.Add(1)
		go func() {
			defer wg.Done()
			send(jobmon.Perform(ctx, w.client, eff))
		}()
	case jobmon.ArmTimer:
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer := time.NewTimer(eff.After)
			defer timer.Stop()
			select {
			case <-timer.C:
				send(jobmon.Tick{Timer: eff.Timer})
			case <-ctx.Done():
			}
		}()
	case jobmon.RefreshReports:
		w.printReports(ctx, eff.Server)
	case jobmon.Notify:
		if eff.Severity == jobmon.SeverityError {
			w.failure = errors.New(eff.Message)
			slog.Warn("job notification", "message", eff.Message)
		}
		w.println(eff.Message)
	}
}

// render prints what changed in the job output since the last snapshot.
func (w *watcher) render() {
	sess, ok := w.monitor.Session()
	if !ok {
		return
	}
	if w.bar != nil {
		_ = w.bar.Add(1)
		w.bar.Describe(fmt.Sprintf("%s/%s %s", sess.Server, sess.Report, sess.State))
	}

	w.renderOutput(sess.Output)

	if sess.Err != "" && sess.Err != w.lastErr {
		w.println(sess.Err)
	}
	w.lastErr = sess.Err
	if sess.State == jobmon.Failed {
		w.failure = fmt.Errorf("report generation failed: %s", sess.Err)
	}
}

func (w *watcher) printReports(ctx context.Context, server string) {
	reports, err := w.client.ListReports(ctx, server)
	if err != nil {
		w.println("Failed to refresh reports: " + reportapi.Message(err))
		return
	}
	w.println("")
	w.println("Reports on " + server + ":")
	for _, item := range present.RenderReports(server, reports, time.Now()) {
		line := "  " + item.Name
		if item.Age != "" {
			line += "  (" + item.Age + ")"
		}
		if item.Processing {
			line += "  [processing]"
		}
		if v, ok := item.Action.(present.ViewReport); ok {
			line += "  " + w.client.ReportURL(v.Server, v.Report)
		}
		w.println(line)
	}
}

// renderOutput writes the difference between the printed snapshot and next.
// Complete lines are matched against the tail of what was printed, so a
// sliding output window only prints the lines that entered it. A rewritten
// last line (a progress frame) is redrawn in place.
func (w *watcher) renderOutput(next string) {
	if next == "" || next == w.printed {
		return
	}
	prev := strings.Split(w.printed, "\n")
	prevDone, prevOpen := prev[:len(prev)-1], prev[len(prev)-1]
	lines := strings.Split(next, "\n")

	kept := overlap(prevDone, lines[:len(lines)-1])
	rest := lines[kept:]
	first := rest[0]

	switch {
	case w.outputOpen && strings.HasPrefix(first, prevOpen):
		w.write(first[len(prevOpen):])
	case w.outputOpen:
		w.write(clearLine + first)
	default:
		if w.lineOpen {
			w.write("\n")
		}
		w.write(first)
	}
	for _, line := range rest[1:] {
		w.write("\n" + line)
	}
	w.printed = next
	w.outputOpen = true
}

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r\x1b[K"

// overlap returns how many leading lines of next continue the tail of done.
// Dropping lines from the front of done models the bounded window sliding.
func overlap(done, next []string) int {
	for skip := 0; skip < len(done); skip++ {
		n := len(done) - skip
		if n > len(next) {
			continue
		}
		if slices.Equal(done[skip:], next[:n]) {
			return n
		}
	}
	return 0
}

func (w *watcher) finishBar() {
	if w.bar != nil {
		_ = w.bar.Finish()
	}
}

func (w *watcher) write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(w.out, s)
	w.lineOpen = !strings.HasSuffix(s, "\n")
}

func (w *watcher) println(s string) {
	if w.lineOpen {
		w.write("\n")
	}
	w.write(s + "\n")
	w.outputOpen = false
}
