package sensor

import (
	"context"
	"sync"
)

// Simulator is an in-memory [Sensor] with scriptable behavior. Real device
// sensors are unreachable from automated tests, so the engine's test suite and
// the example programs run against a Simulator instead.
//
// The zero value reports no hardware. All methods are safe for concurrent use.
type Simulator struct {
	mu sync.Mutex

	hardware   bool
	enrolled   bool
	modalities []Modality

	probeErr     error
	challengeErr error

	// next challenge outcomes, consumed in order; when empty the simulator
	// falls back to alwaysPass.
	outcomes   []ChallengeResult
	alwaysPass bool

	challengeCalls int
}

// NewSimulator returns a simulator with hardware present, enrollment done,
// the given modalities, and every challenge passing.
func NewSimulator(modalities ...Modality) *Simulator {
	return &Simulator{
		hardware:   true,
		enrolled:   true,
		modalities: modalities,
		alwaysPass: true,
	}
}

// SetHardware toggles the hardware-present probe result.
func (s *Simulator) SetHardware(present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hardware = present
}

// SetEnrolled toggles the OS-enrollment probe result.
func (s *Simulator) SetEnrolled(enrolled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled = enrolled
}

// SetProbeError makes every probe method fail with err until cleared.
func (s *Simulator) SetProbeError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeErr = err
}

// SetChallengeError makes Challenge itself fail with err until cleared.
func (s *Simulator) SetChallengeError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challengeErr = err
}

// QueueChallenge appends scripted challenge outcomes, consumed in order.
// Once the queue drains, challenges pass again.
func (s *Simulator) QueueChallenge(results ...ChallengeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, results...)
}

// ChallengeCalls reports how many times Challenge has been invoked.
func (s *Simulator) ChallengeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challengeCalls
}

// HasHardware implements [Sensor].
func (s *Simulator) HasHardware(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.probeErr != nil {
		return false, s.probeErr
	}
	return s.hardware, nil
}

// IsEnrolled implements [Sensor].
func (s *Simulator) IsEnrolled(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.probeErr != nil {
		return false, s.probeErr
	}
	return s.enrolled, nil
}

// SupportedModalities implements [Sensor].
func (s *Simulator) SupportedModalities(context.Context) ([]Modality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	out := make([]Modality, len(s.modalities))
	copy(out, s.modalities)
	return out, nil
}

// Challenge implements [Sensor]. Scripted outcomes queued with
// [Simulator.QueueChallenge] are consumed first.
func (s *Simulator) Challenge(ctx context.Context, _ string, _ bool) (ChallengeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ChallengeResult{}, err
	}

	s.challengeCalls++

	if s.challengeErr != nil {
		return ChallengeResult{}, s.challengeErr
	}
	if len(s.outcomes) > 0 {
		next := s.outcomes[0]
		s.outcomes = s.outcomes[1:]
		return next, nil
	}
	if s.alwaysPass || s.hardware {
		return ChallengeResult{OK: true}, nil
	}
	return ChallengeResult{Reason: "no usable sensor"}, nil
}
