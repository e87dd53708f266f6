package engine

import (
	"fmt"

	"github.com/PauMirall/Lumenfall/server/internal/domain/bearer"
	"github.com/PauMirall/Lumenfall/server/internal/domain/rules"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

// BearerDownPayload records a bearer being caught, final score included.
type BearerDownPayload struct {
	BearerID   string  `json:"bearerId"`
	Name       string  `json:"name"`
	ShadeID    string  `json:"shadeId"`
	FinalScore float64 `json:"finalScore"`
	Survived   float64 `json:"survived"`
}

// HighScorePayload records the all-time record falling.
type HighScorePayload struct {
	BearerID string  `json:"bearerId"`
	Score    float64 `json:"score"`
	Previous float64 `json:"previous"`
}

// ScoreSystem keeps every bearer's survival score and the all-time
// record. Scores are recomputed from elapsed time each tick, never
// accumulated, so a dropped tick can't bend them.
type ScoreSystem struct {
	multiplier float64
	highScore  float64 // hot copy of the persisted record; only ever rises
}

func NewScoreSystem(multiplier, highScore float64) *ScoreSystem {
	return &ScoreSystem{multiplier: multiplier, highScore: highScore}
}

// HighScore returns the best score ever seen, this session included.
func (sc *ScoreSystem) HighScore() float64 { return sc.highScore }

// Update recomputes the score of every bearer still standing.
func (sc *ScoreSystem) Update(w *World) {
	for _, b := range w.bearers {
		if b.Up {
			b.Score = rules.Score(b.SurvivalTime(w.matchTime), sc.multiplier)
		}
	}
}

// HandleDown freezes a caught bearer's score and challenges the record.
// The caller guarantees this runs once per down, through bearer.Down.
func (sc *ScoreSystem) HandleDown(w *World, b *bearer.Bearer, shadeID string) {
	survived := b.SurvivalTime(w.matchTime)
	final := rules.Score(survived, sc.multiplier)
	b.Score = final
	if final > w.peakScore {
		w.peakScore = final
	}

	w.emit(events.EventTypeBearerDown, b.ID, shadeID, BearerDownPayload{
		BearerID:   b.ID,
		Name:       b.Name,
		ShadeID:    shadeID,
		FinalScore: final,
		Survived:   survived,
	})
	w.logger.Event("BEARER_DOWN", b.ID, fmt.Sprintf("%s caught after %.1fs, score %.0f", b.Name, survived, final))

	if final > sc.highScore {
		previous := sc.highScore
		sc.highScore = final
		w.emit(events.EventTypeHighScore, b.ID, "", HighScorePayload{
			BearerID: b.ID, Score: final, Previous: previous,
		})
		w.logger.Info(fmt.Sprintf("NEW HIGH SCORE: %.0f (was %.0f)", final, previous))
		metrics.Get().SetHighScore(final)
	}
}
