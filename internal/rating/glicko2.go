// internal/rating/glicko2.go
package rating

import (
	"math"

	"github.com/google/uuid"
)

const (
	// GlickoScale is the multiplier used for converting between Elo and Glicko2's mu.
	GlickoScale = 173.7178
	// DefaultMu is the baseline rating (1500) in Glicko2 terms.
	DefaultMu = 1500.0
	// DefaultPhi is the baseline rating deviation (RD) in Glicko2 terms (350).
	DefaultPhi = 350.0
	// DefaultSigma is the baseline volatility for a fresh player.
	DefaultSigma = 0.06
	// Tau is the constraint on volatility changes.
	Tau = 0.5
	// Epsilon is the tolerance used in iteration stopping conditions.
	Epsilon = 0.000001
)

// PlayerRating is one player's persisted rating state in standard Elo scale.
type PlayerRating struct {
	ID    uuid.UUID
	Elo   int
	Phi   float64
	Sigma float64
}

// NewPlayerRating returns the baseline rating for a player with no history.
func NewPlayerRating(id uuid.UUID) PlayerRating {
	return PlayerRating{ID: id, Elo: int(DefaultMu), Phi: DefaultPhi, Sigma: DefaultSigma}
}

// Glicko2Rating holds the transformed rating (Mu), rating deviation (Phi),
// and volatility (Sigma) in Glicko2 space.
type Glicko2Rating struct {
	Mu    float64
	Phi   float64
	Sigma float64
}

// NewGlicko2Rating converts a standard 1500-based Elo, rating deviation, and
// volatility into Glicko2 space.
func NewGlicko2Rating(elo, rd, sigma float64) Glicko2Rating {
	return Glicko2Rating{
		Mu:    (elo - DefaultMu) / GlickoScale,
		Phi:   rd / GlickoScale,
		Sigma: sigma,
	}
}

// ToElo converts a Glicko2Rating's Mu back to a standard 1500-based Elo scale.
func (r Glicko2Rating) ToElo() float64 {
	return r.Mu*GlickoScale + DefaultMu
}

// ApplyRoundResult rates a finished round as landlord versus the peasant
// team. The landlord's opponent is the peasants' average rating; each peasant
// is rated against the landlord individually. Returns updated copies in the
// same order.
func ApplyRoundResult(landlord PlayerRating, peasants []PlayerRating, landlordWon bool) (PlayerRating, []PlayerRating) {
	if len(peasants) == 0 {
		return landlord, peasants
	}

	landlordScore := 0.0
	peasantScore := 1.0
	if landlordWon {
		landlordScore = 1.0
		peasantScore = 0.0
	}

	var peasantEloSum float64
	for _, p := range peasants {
		peasantEloSum += float64(p.Elo)
	}
	teamR := NewGlicko2Rating(peasantEloSum/float64(len(peasants)), DefaultPhi, DefaultSigma)

	lr := NewGlicko2Rating(float64(landlord.Elo), landlord.Phi, landlord.Sigma)
	newLR := updateGlicko(lr, teamR, landlordScore)
	landlordOldR := NewGlicko2Rating(float64(landlord.Elo), DefaultPhi, DefaultSigma)

	landlord.Elo = int(math.Round(newLR.ToElo()))
	landlord.Phi = newLR.Phi * GlickoScale
	landlord.Sigma = newLR.Sigma

	updated := make([]PlayerRating, len(peasants))
	for i, p := range peasants {
		pr := NewGlicko2Rating(float64(p.Elo), p.Phi, p.Sigma)
		newPR := updateGlicko(pr, landlordOldR, peasantScore)
		p.Elo = int(math.Round(newPR.ToElo()))
		p.Phi = newPR.Phi * GlickoScale
		p.Sigma = newPR.Sigma
		updated[i] = p
	}
	return landlord, updated
}

// updateGlicko performs a single-match Glicko2 update with volatility for a
// user r against an opponent rOpp, given the final score in [0..1].
func updateGlicko(r, rOpp Glicko2Rating, score float64) Glicko2Rating {
	gVal := g(rOpp.Phi)
	EVal := E(r.Mu, rOpp.Mu, rOpp.Phi)

	v := 1.0 / (gVal * gVal * EVal * (1 - EVal))
	delta := v * gVal * (score - EVal)

	a := math.Log(r.Sigma * r.Sigma)
	A := a
	var B float64
	if delta*delta > r.Phi*r.Phi+v {
		B = math.Log(delta*delta - r.Phi*r.Phi - v)
	} else {
		k := 1.0
		for f(a-k*Tau, r.Phi, v, delta, A) < 0 {
			k++
		}
		B = a - k*Tau
	}

	fA := func(x float64) float64 {
		return f(x, r.Phi, v, delta, A)
	}

	fB := fA(B)
	for i := 0; i < 100; i++ {
		fAVal := fA(A)
		if math.Abs(fAVal) < Epsilon {
			break
		}
		A1 := A
		A = A1 - fAVal*(A1-B)/(fAVal-fB)
		fB = fA(B)
		if math.Abs(A-B) < Epsilon {
			break
		}
	}
	newSigma := math.Exp(A / 2)
	phiStar := math.Sqrt(r.Phi*r.Phi + newSigma*newSigma)
	phiPrime := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
	muPrime := r.Mu + phiPrime*phiPrime*gVal*(score-EVal)

	return Glicko2Rating{
		Mu:    muPrime,
		Phi:   phiPrime,
		Sigma: newSigma,
	}
}

// g is the G(phi) factor from Glicko2, applying the standard formula 1/sqrt(1+3phi^2/pi^2).
func g(phi float64) float64 {
	return 1.0 / math.Sqrt(1.0+3.0*phi*phi/math.Pi/math.Pi)
}

// E is the expected score formula in Glicko2 space, E(mu,mu2,phi2)=1/(1+exp[-g(phi2)*(mu-mu2)])
func E(mu, mu2, phi2 float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phi2)*(mu-mu2)))
}

// f is the Glicko2 volatility root-finding function used in the iterative volatility update.
func f(x, phi, v, delta, a float64) float64 {
	ex := math.Exp(x)
	num := ex * (delta*delta - phi*phi - v - ex)
	den := 2.0 * (phi*phi + v + ex) * (phi*phi + v + ex)
	return (num / den) - ((x - a) / (Tau * Tau))
}
