package chat

import "strings"

type cannedReply struct {
	triggers []string
	text     string
}

// First match wins, so order matters.
var cannedReplies = []cannedReply{
	{
		triggers: []string{"tiktok"},
		text:     "Working at TikTok was incredible! I was in Strategy & Operations for their Music division in China. The pace was insane - typical ByteDance culture where everything moves at light speed. I learned so much about data-driven decision making and how to operate in high-growth environments.",
	},
	{
		triggers: []string{"six", "startup"},
		text:     "Six was my co-founding adventure - an AI agent that could order takeout 30% cheaper! We actually raised $300k in SAFE funding and had some initial traction. But wow, did I make mistakes! 😅 The biggest lesson? Product-market fit is everything. We built something cool, but didn't validate demand properly.",
	},
	{
		triggers: []string{"germany", "siemens"},
		text:     "Germany with Siemens Advanta was my consulting chapter. Honestly, I still don't understand why people choose consulting - me included! 😂 But it taught me about large-scale transformations and how big corporations think. The work-life balance was actually decent compared to banking, and I got to work on some fascinating industrial IoT projects.",
	},
	{
		triggers: []string{"new york", "nyc", "food"},
		text:     "NYC food scene is insane! For fine dining, I love Le Bernardin for seafood - absolutely mind-blowing. For casual but amazing, Joe's Pizza for that perfect NY slice, and Xi'an Famous Foods for hand-pulled noodles that remind me of China. Katz's Deli for pastrami is a must!",
	},
}

const defaultReply = "That's an interesting question! My journey has taken me from investment banking in China to AI startups in the US, with stops in consulting in Germany and consumer insights in Hong Kong. I've learned that every experience shapes your perspective. What specific aspect of my international career would you like to explore?"

// Fallback picks a canned reply by case-insensitive substring match on message.
func Fallback(message string) string {
	lower := strings.ToLower(message)
	for _, c := range cannedReplies {
		for _, trigger := range c.triggers {
			if strings.Contains(lower, trigger) {
				return c.text
			}
		}
	}
	return defaultReply
}
