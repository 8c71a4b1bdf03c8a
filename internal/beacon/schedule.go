package beacon

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrEmptySchedule is returned when a schedule has nothing to replay.
var ErrEmptySchedule = errors.New("schedule has no advertisements")

// Advertisement is one URL broadcast as seen by the radio. It is sighted at
// Appear and reported lost at Lost. A zero Lost keeps it around until the
// cycle ends.
type Advertisement struct {
	URL      string        `yaml:"url"`
	Appear   time.Duration `yaml:"appear"`
	Lost     time.Duration `yaml:"lost"`
	Distance float64       `yaml:"distance"`
}

// Schedule is a replayable list of advertisements.
type Schedule struct {
	Loop bool `yaml:"loop"`
	// Period is the length of one cycle. It never ends before the latest
	// advertisement event and is at least one second.
	Period         time.Duration   `yaml:"period"`
	Advertisements []Advertisement `yaml:"advertisements"`
}

// LoadSchedule reads a yaml schedule. An empty path returns the demo.
func LoadSchedule(path string) (Schedule, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DemoSchedule(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read schedule %s: %w", path, err)
	}
	return ParseSchedule(raw)
}

func ParseSchedule(raw []byte) (Schedule, error) {
	var sched Schedule
	if err := yaml.Unmarshal(raw, &sched); err != nil {
		return Schedule{}, fmt.Errorf("parse schedule: %w", err)
	}
	if err := sched.Validate(); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func (s Schedule) Validate() error {
	for i, ad := range s.Advertisements {
		if strings.TrimSpace(ad.URL) == "" {
			return fmt.Errorf("advertisement %d: url is required", i)
		}
		if ad.Appear < 0 || ad.Lost < 0 {
			return fmt.Errorf("advertisement %d: negative offset", i)
		}
		if ad.Lost > 0 && ad.Lost <= ad.Appear {
			return fmt.Errorf("advertisement %d: lost must come after appear", i)
		}
		if ad.Distance < 0 {
			return fmt.Errorf("advertisement %d: negative distance", i)
		}
	}
	if s.Period < 0 {
		return fmt.Errorf("negative period %s", s.Period)
	}
	return nil
}

// DemoSchedule is replayed when no schedule file is configured.
func DemoSchedule() Schedule {
	return Schedule{
		Loop:   true,
		Period: 40 * time.Second,
		Advertisements: []Advertisement{
			{URL: "https://google.github.io/physical-web/", Appear: 1 * time.Second, Lost: 30 * time.Second, Distance: 0.8},
			{URL: "https://www.w3.org/TR/web-bluetooth/", Appear: 3 * time.Second, Lost: 25 * time.Second, Distance: 2.4},
			{URL: "https://example.com/museum/exhibit-12", Appear: 5 * time.Second, Distance: 6.1},
			{URL: "https://google.github.io/physical-web/", Appear: 12 * time.Second, Distance: 0.4},
			{URL: "https://example.com/bus-stop/42", Appear: 15 * time.Second, Lost: 35 * time.Second, Distance: 11.5},
		},
	}
}

type timelineKind int

const (
	sighted timelineKind = iota
	lost
)

// minCyclePeriod bounds how often a looping schedule restarts, so a schedule
// whose advertisements all sit at offset zero cannot replay in a tight loop.
const minCyclePeriod = time.Second

type timelineEvent struct {
	at   time.Duration
	kind timelineKind
	ad   Advertisement
}

// timeline flattens the schedule into events ordered by offset. Ties keep
// sightings ahead of losses so an item is never lost before it is seen.
func (s Schedule) timeline() ([]timelineEvent, time.Duration) {
	events := make([]timelineEvent, 0, len(s.Advertisements)*2)
	var end time.Duration
	for _, ad := range s.Advertisements {
		events = append(events, timelineEvent{at: ad.Appear, kind: sighted, ad: ad})
		end = max(end, ad.Appear)
		if ad.Lost > 0 {
			events = append(events, timelineEvent{at: ad.Lost, kind: lost, ad: ad})
			end = max(end, ad.Lost)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].kind < events[j].kind
	})

	period := max(s.Period, end, minCyclePeriod)
	return events, period
}
