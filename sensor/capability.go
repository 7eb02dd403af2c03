package sensor

import "context"

// modality preference when a sensor reports several mechanisms.
var modalityRank = map[Modality]int{
	ModalityFace:        4,
	ModalityFingerprint: 3,
	ModalityIris:        2,
	ModalityGeneric:     1,
	ModalityNone:        0,
}

// InferCapability derives a [Capability] from live sensor probes.
//
// The policy is deliberately conservative: any probe failure degrades to
// unsupported. The one exception is best-effort capability inference — when
// optimistic is true and the hardware probe succeeded but the modality query
// failed, the capability is reported as a supported Generic modality. This
// mirrors platform heuristics (notably guessing facial recognition on devices
// that refuse to enumerate their sensors) and is known to be unreliable; it
// exists so callers can opt into offering the biometric fast path on such
// devices rather than hiding it.
func InferCapability(ctx context.Context, s Sensor, optimistic bool) Capability {
	hasHardware, err := s.HasHardware(ctx)
	if err != nil || !hasHardware {
		return Capability{}
	}

	enrolled, err := s.IsEnrolled(ctx)
	if err != nil {
		if optimistic {
			return Capability{Supported: true, Modality: ModalityGeneric}
		}
		return Capability{}
	}
	if !enrolled {
		return Capability{}
	}

	modalities, err := s.SupportedModalities(ctx)
	if err != nil || len(modalities) == 0 {
		if optimistic {
			return Capability{Supported: true, Modality: ModalityGeneric}
		}
		return Capability{}
	}

	best := ModalityNone
	for _, m := range modalities {
		if modalityRank[m] > modalityRank[best] {
			best = m
		}
	}
	if best == ModalityNone {
		return Capability{}
	}

	return Capability{Supported: true, Modality: best}
}
