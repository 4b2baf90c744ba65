package generator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

func TestDelayRespectsFloor(t *testing.T) {
	timing := NewTiming(0.01, 500*time.Millisecond, rand.New(rand.NewSource(1)))
	d := timing.Delay(time.Second, 2*time.Second)
	if d < 500*time.Millisecond {
		t.Errorf("expected delay to respect floor, got %v", d)
	}
}

func TestDelayIsExactWhenMinEqualsMax(t *testing.T) {
	timing := NewTiming(1.0, 0, rand.New(rand.NewSource(1)))
	d := timing.Delay(time.Second, time.Second)
	if d != time.Second {
		t.Errorf("expected exact delay when min==max, got %v", d)
	}
}

func TestCCDurationIncludesAirPurgeMinutes(t *testing.T) {
	timing := NewTiming(1.0, 0, nil)
	d := timing.CCDuration(10, 2.5)
	want := time.Duration(12.5 * float64(time.Minute))
	if d != want {
		t.Errorf("expected %v, got %v", want, d)
	}
}

func TestEvaporationDurationUsesLatestTimeFromStartTrigger(t *testing.T) {
	timing := NewTiming(1.0, 0, nil)
	early := 600
	late := 1800
	profiles := protocol.EvaporationProfiles{
		Updates: []protocol.EvaporationProfile{
			{Trigger: &protocol.EvaporationTrigger{Type: "time_from_start", TimeInSec: &early}},
			{Trigger: &protocol.EvaporationTrigger{Type: "time_from_start", TimeInSec: &late}},
		},
	}
	d := timing.EvaporationDuration(profiles)
	if d != 1800*time.Second {
		t.Errorf("expected 1800s, got %v", d)
	}
}

func TestEvaporationDurationFallsBackToSixtyMinutes(t *testing.T) {
	timing := NewTiming(1.0, 0, nil)
	d := timing.EvaporationDuration(protocol.EvaporationProfiles{})
	if d != 60*time.Minute {
		t.Errorf("expected 60m fallback, got %v", d)
	}
}

func TestIntermediateIntervalScalesAndFloors(t *testing.T) {
	timing := NewTiming(0.1, 2*time.Second, nil)
	got := timing.IntermediateInterval(5 * time.Second)
	if got != 2*time.Second {
		t.Errorf("expected floor of 2s, got %v", got)
	}

	got = timing.IntermediateInterval(60 * time.Second)
	if got != 6*time.Second {
		t.Errorf("expected 6s, got %v", got)
	}
}

func TestRobotTimestampFormat(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 45, 123000000, time.UTC)
	got := RobotTimestamp(at)
	want := "2025-01-15_10-30-45.123"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
