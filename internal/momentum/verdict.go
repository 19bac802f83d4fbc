package momentum

const (
	HeaderBetter   = "YOU ARE A BETTER PERSON THAN YOU WERE YESTERDAY."
	HeaderWorse    = "YOU HAVE REGRESSED FROM THE PERSON YOU WERE YESTERDAY."
	HeaderStagnant = "YOU ARE STAGNANT; EQUILIBRIUM IS THE FIRST STAGE OF DECAY."
)

// Header returns the fixed verdict sentence for v
func (v Verdict) Header() string {
	switch v {
	case VerdictBetter:
		return HeaderBetter
	case VerdictWorse:
		return HeaderWorse
	default:
		return HeaderStagnant
	}
}

// Valid reports whether v is one of the three verdicts
func (v Verdict) Valid() bool {
	return v == VerdictBetter || v == VerdictWorse || v == VerdictStagnant
}
