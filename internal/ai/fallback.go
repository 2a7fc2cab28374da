package ai

import (
	"fmt"
	"math/rand"

	"taskpulse/internal/model"
)

// Fallback returns an encouragement message without touching any external
// service. Used whenever the governor declines or fails to call the model.
func Fallback(title string) model.AITaskMessage {
	fallbacks := []model.AITaskMessage{
		{
			Message: fmt.Sprintf("%q - Every great achievement starts with a single step! 🚀", title),
			Type:    model.MessageMotivational,
		},
		{
			Message: fmt.Sprintf("Pro tip: Break down %q into smaller, manageable chunks for better productivity! 💡", title),
			Type:    model.MessageTip,
		},
		{
			Message: "Did you know? People who write down their tasks are 42% more likely to achieve them! 📝",
			Type:    model.MessageFunFact,
		},
		{
			Message: fmt.Sprintf("%q - You've got this! Channel your inner productivity superhero! 🦸", title),
			Type:    model.MessageCreative,
		},
	}

	return fallbacks[rand.Intn(len(fallbacks))]
}
