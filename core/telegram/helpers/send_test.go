package helpers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/wordbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

func TestSendAsyncWaitsOnFullLane(t *testing.T) {
	disp := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1})
	SetDispatcher(disp)
	t.Cleanup(func() { SetDispatcher(nil) })

	c := tele.NewContext(nil, tele.Update{
		ID:      3,
		Message: &tele.Message{Chat: &tele.Chat{ID: 21}, Sender: &tele.User{ID: 21}},
	})

	release := make(chan struct{})
	var mu sync.Mutex
	var got []int
	record := func(i int) func() error {
		return func() error {
			if i == 0 {
				<-release
			}
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}
	}

	if err := sendAsync(c, 21, "send.text", "sendMessage", record(0)); err != nil {
		t.Fatalf("send 0: %v", err)
	}
	// Fill the lane behind the blocked job.
	deadline := time.Now().Add(time.Second)
	for {
		err := disp.Enqueue(context.Background(), 21, "send.text", "sendMessage", record(1))
		if err == nil {
			break
		}
		if !errors.Is(err, sender.ErrQueueFull) || time.Now().After(deadline) {
			t.Fatalf("enqueue 1: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	done := make(chan error, 1)
	go func() { done <- sendAsync(c, 21, "send.text", "sendMessage", record(2)) }()
	select {
	case err := <-done:
		t.Fatalf("send on full lane returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("send 2: %v", err)
	}
	disp.Close()

	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("delivery order = %v", got)
	}
}

func TestSendAsyncDropsAfterClose(t *testing.T) {
	disp := sender.NewDispatcher(sender.Options{})
	disp.Close()
	SetDispatcher(disp)
	t.Cleanup(func() { SetDispatcher(nil) })

	c := tele.NewContext(nil, tele.Update{ID: 4, Message: &tele.Message{Chat: &tele.Chat{ID: 8}}})
	ran := false
	err := sendAsync(c, 8, "send.text", "sendMessage", func() error {
		ran = true
		return nil
	})
	if !errors.Is(err, sender.ErrQueueClosed) || ran {
		t.Fatalf("err = %v, ran = %v", err, ran)
	}
}
