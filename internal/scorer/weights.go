// Package scorer computes a deterministic match score between a candidate
// subtitle and a video query (spec §4.4), and the should_upgrade decision.
// Grounded on spec §4.4's invariants #1-#7; no pack library addresses a
// scoring-formula concern, so this is plain arithmetic over stdlib types
// (justified — no scoring/ranking library appears anywhere in _examples).
package scorer

// Weights are the tunable point values behind Score. Operator overrides
// come from config.Settings.ScorerWeights; these are the compiled-in
// defaults that satisfy invariants #1-#2 (exact id > series+season+episode
// ≥ 400 > year > resolution).
type Weights struct {
	ExactID                int
	SeriesTitle            int
	Season                 int
	Episode                int
	Year                   int
	Resolution             int
	ReleaseGroup           int
	HearingImpairedPenalty int
	ForcedPenalty          int
	ForcedBonus            int
	MaxMachineTranslatedPenalty int
	MaxUploaderTrustBonus  int
}

// DefaultWeights satisfies spec §4.4 #1 (exact id > series title) and #2
// (series+season+episode reaches the ≥400 "perfect" early-exit threshold:
// 150+120+130 = 400).
func DefaultWeights() Weights {
	return Weights{
		ExactID:                     500,
		SeriesTitle:                 150,
		Season:                      120,
		Episode:                     130,
		Year:                        60,
		Resolution:                  40,
		ReleaseGroup:                30,
		HearingImpairedPenalty:      -40,
		ForcedPenalty:               -60,
		ForcedBonus:                 80,
		MaxMachineTranslatedPenalty: -100,
		MaxUploaderTrustBonus:       25,
	}
}

// PerfectThreshold is the score at or above which early-exit is permitted
// once AutoPrioritizeProviders/EarlyExit settings allow it.
const PerfectThreshold = 400
