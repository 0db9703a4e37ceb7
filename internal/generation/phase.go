package generation

// Phase is a state of the generation state machine.
type Phase string

const (
	PhaseStart               Phase = "start"
	PhaseResolvingAccount    Phase = "resolving_account"
	PhaseCheckingCredits     Phase = "checking_credits"
	PhaseExtractingKeywords  Phase = "extracting_keywords"
	PhaseSynthesizingContent Phase = "synthesizing_content"
	PhaseScoring             Phase = "scoring"
	PhasePersisting          Phase = "persisting"
	PhaseFinalizingCredit    Phase = "finalizing_credit"
	PhaseComplete            Phase = "complete"
	PhaseError               Phase = "error"
)

// Progress checkpoints. Each phase reports its entry value; phases that
// produce a payload report a second, higher value when they finish.
const (
	progressStart        = 0
	progressResolving    = 5
	progressChecking     = 10
	progressExtracting   = 15
	progressExtracted    = 30
	progressSynthesizing = 35
	progressScoring      = 80
	progressScored       = 85
	progressPersisting   = 90
	progressFinalizing   = 95
	progressComplete     = 100
)

// Terminal reports whether no event may follow p.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}
