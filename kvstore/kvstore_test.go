package kvstore

import (
	"strconv"
	"sync"
	"testing"
)

func TestTypedAccessors(t *testing.T) {
	s := New()

	if s.Work() != 0 {
		t.Fatal("unset work should be zero")
	}
	s.SetWork(100000)
	if s.Work() != 100000 {
		t.Fatalf("work = %d", s.Work())
	}

	if s.MiningEnabled() {
		t.Fatal("flags default to false")
	}
	s.SetMiningEnabled(true)
	if !s.MiningEnabled() {
		t.Fatal("flag did not stick")
	}

	s.SetValidator("t8juvewcui")
	if s.Validator() != "t8juvewcui" {
		t.Fatalf("validator = %q", s.Validator())
	}
	s.SetValidator("")
	if s.Validator() != "" {
		t.Fatal("validator not cleared")
	}
}

func TestMOTD(t *testing.T) {
	s := New()
	msg, when := s.MOTD()
	if msg != "" || !when.IsZero() {
		t.Fatal("unset motd should be empty")
	}
	s.SetMOTD("Welcome")
	msg, when = s.MOTD()
	if msg != "Welcome" || when.IsZero() {
		t.Fatalf("motd = %q, %v", msg, when)
	}
}

func TestWorkSampleRing(t *testing.T) {
	s := New()
	for i := 0; i < WorkOverTimeCap+10; i++ {
		s.PushWorkSample(uint64(i))
	}
	samples := s.WorkOverTime()
	if len(samples) != WorkOverTimeCap {
		t.Fatalf("ring size = %d", len(samples))
	}
	if samples[0] != 10 || samples[len(samples)-1] != uint64(WorkOverTimeCap+9) {
		t.Fatalf("ring dropped the wrong end: first=%d last=%d", samples[0], samples[len(samples)-1])
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetWork(uint64(n*100 + j))
				_ = s.Work()
				s.Push("l", strconv.Itoa(j), 50)
				_ = s.List("l")
			}
		}(i)
	}
	wg.Wait()
	if got := len(s.List("l")); got != 50 {
		t.Fatalf("list size = %d", got)
	}
}
