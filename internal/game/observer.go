package game

// Observer receives run notifications synchronously from Start and Update.
type Observer interface {
	ScoreChanged(score int)
	LivesChanged(lives int)
	GameEnded(finalScore int)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnScore func(score int)
	OnLives func(lives int)
	OnEnd   func(finalScore int)
}

func (f ObserverFuncs) ScoreChanged(score int) {
	if f.OnScore != nil {
		f.OnScore(score)
	}
}

func (f ObserverFuncs) LivesChanged(lives int) {
	if f.OnLives != nil {
		f.OnLives(lives)
	}
}

func (f ObserverFuncs) GameEnded(finalScore int) {
	if f.OnEnd != nil {
		f.OnEnd(finalScore)
	}
}

var _ Observer = ObserverFuncs{}
