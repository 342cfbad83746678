package view

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/tally/internal/expense"
)

// recordFeed owns the live subscription behind a screen. Every subscription
// it opens shares one context, so closing the feed also releases a
// subscription that completes after the screen has gone.
type recordFeed struct {
	stream *expense.Stream
	owner  string

	ctx    context.Context
	cancel context.CancelFunc

	sub     *expense.Subscription
	loading bool
}

func newRecordFeed(stream *expense.Stream, owner string) *recordFeed {
	ctx, cancel := context.WithCancel(context.Background())

	return &recordFeed{
		stream:  stream,
		owner:   owner,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
	}
}

func (f *recordFeed) Loading() bool {
	return f.loading
}

// Reconnect subscribes again once the previous subscription has ended. It
// returns nil while one is open or still being set up.
func (f *recordFeed) Reconnect() tea.Cmd {
	if f.loading || f.sub != nil || f.ctx.Err() != nil {
		return nil
	}

	f.loading = true

	return f.subscribeCmd()
}

// Close releases the subscription. A closed feed never subscribes again.
func (f *recordFeed) Close() {
	if f == nil {
		return
	}

	f.cancel()
	f.loading = false

	if f.sub != nil {
		f.sub.Unsubscribe()
		f.sub = nil
	}
}

type feedEventKind int

const (
	feedStale feedEventKind = iota
	feedSubscribed
	feedFailed
	feedSnapshot
	feedEnded
)

type feedEvent struct {
	kind     feedEventKind
	snapshot expense.Snapshot
	err      error
}

// Update consumes the feed's own messages. ok is false for any other
// message.
func (f *recordFeed) Update(msg tea.Msg) (ev feedEvent, cmd tea.Cmd, ok bool) {
	switch msg := msg.(type) {
	case subscribedMsg:
		if msg.feed != f || f.ctx.Err() != nil {
			if msg.sub != nil {
				msg.sub.Unsubscribe()
			}

			return feedEvent{kind: feedStale}, nil, true
		}

		f.loading = false

		if msg.err != nil {
			return feedEvent{kind: feedFailed, err: msg.err}, nil, true
		}

		if f.sub != nil && f.sub != msg.sub {
			f.sub.Unsubscribe()
		}

		f.sub = msg.sub

		return feedEvent{kind: feedSubscribed}, waitForSnapshot(msg.sub), true

	case snapshotMsg:
		if f.sub == nil || msg.sub != f.sub {
			return feedEvent{kind: feedStale}, nil, true
		}

		return feedEvent{kind: feedSnapshot, snapshot: msg.snapshot}, waitForSnapshot(msg.sub), true

	case streamEndedMsg:
		if f.sub == nil || msg.sub != f.sub {
			return feedEvent{kind: feedStale}, nil, true
		}

		f.sub.Unsubscribe()
		f.sub = nil

		return feedEvent{kind: feedEnded, err: msg.err}, nil, true
	}

	return feedEvent{}, nil, false
}

// Messages

type subscribedMsg struct {
	feed *recordFeed
	sub  *expense.Subscription
	err  error
}

type snapshotMsg struct {
	sub      *expense.Subscription
	snapshot expense.Snapshot
}

type streamEndedMsg struct {
	sub *expense.Subscription
	err error
}

func (f *recordFeed) subscribeCmd() tea.Cmd {
	ctx, stream, owner := f.ctx, f.stream, f.owner

	return func() tea.Msg {
		sub, err := stream.Subscribe(ctx, owner)
		return subscribedMsg{feed: f, sub: sub, err: err}
	}
}

func waitForSnapshot(sub *expense.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.Updates()
		if !ok {
			return streamEndedMsg{sub: sub, err: sub.Err()}
		}

		return snapshotMsg{sub: sub, snapshot: snap}
	}
}
